package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/replay"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to mastery_map.db")
	sessionID := flag.String("session", "", "session to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	withExpected := flag.Bool("expected", true, "record the replayed outcome as the fixture's expectations")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/mastery_map.db --session <id> --out fixture.json [--expected=false]")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath, *withExpected); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, sessionID, outPath string, withExpected bool) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	items, err := pool.NewItemStore(st.DB())
	if err != nil {
		return fmt.Errorf("open items: %w", err)
	}

	responses, err := st.ListResponses(sessionID)
	if err != nil {
		return err
	}
	if len(responses) == 0 {
		return fmt.Errorf("session %s has no responses", sessionID)
	}
	all, err := items.List()
	if err != nil {
		return err
	}

	f := &replay.Fixture{
		Description: "exported session " + sessionID,
		Config: replay.FixtureConfig{
			GridSize: 50, RegionX1: 1, RegionY1: 1, LengthScale: 0.18,
		},
	}
	for _, it := range all {
		f.Items = append(f.Items, replay.FixtureItem{
			QuestionID: it.QuestionID, X: it.X, Y: it.Y, Difficulty: it.Difficulty,
		})
	}
	for _, r := range responses {
		f.Responses = append(f.Responses, replay.FixtureResponse{
			QuestionID: r.QuestionID, X: r.X, Y: r.Y,
			Outcome: string(r.Outcome), Difficulty: r.Difficulty,
		})
	}

	// Run the sequence once so the fixture pins the outcome it was captured
	// with; a later regression then fails Verify instead of passing silently.
	if withExpected {
		res := replay.Replay(f)
		minCov := res.FinalCoverage
		warns := res.GuardWarnings
		f.Expected = &replay.FixtureExpected{
			MinCoverage:   &minCov,
			FinalPhase:    string(res.FinalPhase),
			MaxGuardWarns: &warns,
		}
	}

	if err := replay.SaveFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d items, %d responses\n", outPath, len(f.Items), len(f.Responses))
	return nil
}

// #endregion main
