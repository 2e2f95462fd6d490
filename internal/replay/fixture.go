package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// response sequence plus the estimator configuration it was captured under.
type Fixture struct {
	Description string             `json:"description"`
	Config      FixtureConfig      `json:"config"`
	Items       []FixtureItem      `json:"items"`
	Responses   []FixtureResponse  `json:"responses"`
	Expected    *FixtureExpected   `json:"expected,omitempty"`
}

// FixtureConfig pins the grid and kernel parameters for the run.
type FixtureConfig struct {
	GridSize    int     `json:"grid_size"`
	RegionX0    float64 `json:"region_x0"`
	RegionY0    float64 `json:"region_y0"`
	RegionX1    float64 `json:"region_x1"`
	RegionY1    float64 `json:"region_y1"`
	LengthScale float64 `json:"length_scale"`
}

// Region converts the flattened bounds back into a Region.
func (c FixtureConfig) Region() estimator.Region {
	return estimator.Region{X0: c.RegionX0, Y0: c.RegionY0, X1: c.RegionX1, Y1: c.RegionY1}
}

// FixtureItem is one pool entry, used to resolve response difficulty.
type FixtureItem struct {
	QuestionID string  `json:"question_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Difficulty int     `json:"difficulty"`
}

// FixtureResponse is one recorded answer event.
type FixtureResponse struct {
	QuestionID string  `json:"question_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Outcome    string  `json:"outcome"` // "correct" | "incorrect" | "skipped"
	Difficulty int     `json:"difficulty"`
}

// FixtureExpected captures the aggregate outcome a fixture asserts.
type FixtureExpected struct {
	MinCoverage   *float64 `json:"min_coverage,omitempty"`
	FinalPhase    string   `json:"final_phase,omitempty"`
	MaxGuardWarns *int     `json:"max_guard_warnings,omitempty"`
}

// #endregion fixture-types

// #region load-save

// LoadFixture reads and parses a fixture JSON file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Config.GridSize <= 0 {
		f.Config.GridSize = 50
	}
	if f.Config.LengthScale <= 0 {
		f.Config.LengthScale = 0.18
	}
	if f.Config.Region().Width() <= 0 || f.Config.Region().Height() <= 0 {
		f.Config.RegionX0, f.Config.RegionY0 = 0, 0
		f.Config.RegionX1, f.Config.RegionY1 = 1, 1
	}
	return &f, nil
}

// SaveFixture writes a fixture as indented JSON.
func SaveFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// #endregion load-save
