package recommend

import (
	"sort"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
)

// #region types

// Video is one supplementary content candidate, described by the spatial
// windows of the embedding it covers.
type Video struct {
	VideoID string
	Windows []estimator.Region
}

// VideoScore pairs a video with its ranking score.
type VideoScore struct {
	VideoID string
	TLP     float64 // theoretical learning potential
	Gain    float64 // recency-weighted observed gain, 0 if never watched
	Score   float64 // blended ranking score
}

// Config holds the recommender's blend and recency constants.
type Config struct {
	EMADecay  float64 // weight retained from the previous gain estimate
	GainBlend float64 // contribution of observed gain to the final score
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		EMADecay:  0.7,
		GainBlend: 0.5,
	}
}

// #endregion types

// #region tlp

// TLP computes a video's theoretical learning potential against a posterior
// grid: the mean of (1−K)·U, knowledge deficit times uncertainty, over the
// cells its windows cover. Videos covering well-mastered or well-mapped
// regions score low.
func TLP(video Video, estimates []estimator.CellEstimate) float64 {
	var sum float64
	count := 0
	for _, c := range estimates {
		for _, w := range video.Windows {
			if w.Contains(c.X, c.Y) {
				sum += (1 - c.Value) * c.Uncertainty
				count++
				break
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// #endregion tlp

// #region diff-map

// DiffMap tracks a recency-weighted exponential moving average of posterior
// deltas attributed to watched videos: the before/after difference of the
// cells a video covers, folded in each time the video is watched.
type DiffMap struct {
	cfg   Config
	gains map[string]float64
}

// NewDiffMap creates an empty difference map.
func NewDiffMap(cfg Config) *DiffMap {
	if cfg.EMADecay <= 0 || cfg.EMADecay >= 1 {
		cfg.EMADecay = DefaultConfig().EMADecay
	}
	if cfg.GainBlend <= 0 {
		cfg.GainBlend = DefaultConfig().GainBlend
	}
	return &DiffMap{cfg: cfg, gains: make(map[string]float64)}
}

// Update folds one watch event into the map: the mean posterior-value delta
// over the video's windows, blended with the previous estimate.
func (m *DiffMap) Update(video Video, before, after []estimator.CellEstimate) {
	if len(before) != len(after) || len(before) == 0 {
		return
	}
	var sum float64
	count := 0
	for i := range after {
		for _, w := range video.Windows {
			if w.Contains(after[i].X, after[i].Y) {
				sum += after[i].Value - before[i].Value
				count++
				break
			}
		}
	}
	if count == 0 {
		return
	}
	delta := sum / float64(count)

	prev, seen := m.gains[video.VideoID]
	if !seen {
		m.gains[video.VideoID] = delta
		return
	}
	m.gains[video.VideoID] = m.cfg.EMADecay*prev + (1-m.cfg.EMADecay)*delta
}

// Gain returns the tracked gain for a video, 0 when never watched.
func (m *DiffMap) Gain(videoID string) float64 {
	return m.gains[videoID]
}

// #endregion diff-map

// #region rank

// Rank scores every video by TLP, blended with its observed gain when the
// difference map has one, and returns the list sorted best first. Pass a nil
// diff map for pure-TLP ranking.
func Rank(videos []Video, estimates []estimator.CellEstimate, diffs *DiffMap, cfg Config) []VideoScore {
	out := make([]VideoScore, 0, len(videos))
	for _, v := range videos {
		vs := VideoScore{VideoID: v.VideoID, TLP: TLP(v, estimates)}
		if diffs != nil {
			vs.Gain = diffs.Gain(v.VideoID)
		}
		vs.Score = vs.TLP + cfg.GainBlend*vs.Gain
		if vs.Score < 0 {
			vs.Score = 0
		}
		out = append(out, vs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// #endregion rank
