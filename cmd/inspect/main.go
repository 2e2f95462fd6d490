package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/estimator"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/logging"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to mastery_map.db")
	sessionID := flag.String("session", "", "show single session detail with heatmap")
	gridSize := flag.Int("grid", 50, "grid resolution for the detail heatmap")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/mastery_map.db [--session id] [--grid N] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *sessionID != "" {
		err = runDetailMode(st, *sessionID, *gridSize, *jsonOut)
	} else {
		err = runListMode(st, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID string  `json:"session_id"`
	Responses int     `json:"responses"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(st *store.Store, jsonOut bool) error {
	sessions, err := st.ListSessions()
	if err != nil {
		return err
	}

	rows := make([]listRow, 0, len(sessions))
	for _, s := range sessions {
		n, err := st.CountResponses(s.SessionID)
		if err != nil {
			return err
		}
		rows = append(rows, listRow{
			SessionID: s.SessionID,
			Responses: n,
			CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	if jsonOut {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%-38s %10s  %s\n", "SESSION", "RESPONSES", "CREATED")
	for _, r := range rows {
		fmt.Printf("%-38s %10d  %s\n", r.SessionID, r.Responses, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOut struct {
	SessionID string  `json:"session_id"`
	Responses int     `json:"responses"`
	Coverage  float64 `json:"coverage"`
	MeanValue float64 `json:"mean_value"`
	Events    int     `json:"diagnostic_events"`
}

func runDetailMode(st *store.Store, sessionID string, gridSize int, jsonOut bool) error {
	responses, err := st.ListResponses(sessionID)
	if err != nil {
		return err
	}
	items, err := pool.NewItemStore(st.DB())
	if err != nil {
		return err
	}
	index, err := items.BuildIndex()
	if err != nil {
		return err
	}

	cfg := estimator.DefaultConfig()
	cfg.GridSize = gridSize
	est := estimator.New(cfg, nil)
	est.Restore(responses, 0, index)
	grid := est.Predict()

	var meanValue float64
	for _, c := range grid {
		meanValue += c.Value
	}
	if len(grid) > 0 {
		meanValue /= float64(len(grid))
	}

	if err := logging.EnsureSchema(st.DB()); err != nil {
		return err
	}
	events, err := logging.ListEvents(st.DB(), sessionID)
	if err != nil {
		return err
	}

	if jsonOut {
		data, err := json.MarshalIndent(detailOut{
			SessionID: sessionID,
			Responses: len(responses),
			Coverage:  estimator.Coverage(grid),
			MeanValue: meanValue,
			Events:    len(events),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("session %s: %d responses, coverage %.1f%%, mean value %.3f\n",
		sessionID, len(responses), estimator.Coverage(grid)*100, meanValue)
	printHeatmap(grid, gridSize)
	if len(events) > 0 {
		fmt.Printf("\n%d diagnostic events (last 5):\n", len(events))
		start := len(events) - 5
		if start < 0 {
			start = 0
		}
		for _, e := range events[start:] {
			fmt.Printf("  %s  %s: %s\n", e.CreatedAt.Format("15:04:05"), e.Type, e.Reason)
		}
	}
	return nil
}

// printHeatmap renders the posterior values as ASCII shades, origin at the
// bottom-left to match the embedding orientation.
func printHeatmap(grid []estimator.CellEstimate, n int) {
	shades := []byte(" .:-=+*#%@")
	for gy := n - 1; gy >= 0; gy-- {
		line := make([]byte, n)
		for gx := 0; gx < n; gx++ {
			c := grid[gy*n+gx]
			idx := int(c.Value * float64(len(shades)-1))
			if idx >= len(shades) {
				idx = len(shades) - 1
			}
			line[gx] = shades[idx]
		}
		fmt.Println(string(line))
	}
}

// #endregion detail-mode
