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
	dbPath := flag.String("db", "", "path to mastery_map.db (DB mode)")
	sessionID := flag.String("session", "", "session to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/mastery_map.db --session <id>")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *sessionID)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	return report(f, replay.Replay(f))
}

// #endregion fixture-mode

// #region db-mode

func runDBMode(dbPath, sessionID string) int {
	if sessionID == "" {
		fmt.Fprintln(os.Stderr, "db mode requires --session")
		return 2
	}
	st, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	items, err := pool.NewItemStore(st.DB())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open items: %v\n", err)
		return 2
	}
	f, err := fixtureFromDB(st, items, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract session: %v\n", err)
		return 2
	}
	return report(f, replay.Replay(f))
}

// fixtureFromDB converts a persisted session into an in-memory fixture.
func fixtureFromDB(st *store.Store, items *pool.ItemStore, sessionID string) (*replay.Fixture, error) {
	responses, err := st.ListResponses(sessionID)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("session %s has no responses", sessionID)
	}
	all, err := items.List()
	if err != nil {
		return nil, err
	}

	f := &replay.Fixture{
		Description: "db session " + sessionID,
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
	return f, nil
}

// #endregion db-mode

// #region report

func report(f *replay.Fixture, res replay.ReplayResult) int {
	fmt.Printf("replayed %d turns\n", len(res.Turns))
	fmt.Printf("  round-trip max delta: %.2e\n", res.MaxRoundTripDelta)
	fmt.Printf("  final coverage: %.1f%% | phase: %s\n", res.FinalCoverage*100, res.FinalPhase)
	fmt.Printf("  guard warnings: %d | solver degradations: %d\n", res.GuardWarnings, res.SolverEvents)
	fmt.Printf("  eval: %s\n", res.FinalEval.Reason)

	failures := replay.Verify(f, res)
	for _, msg := range failures {
		fmt.Fprintf(os.Stderr, "FAIL: %s\n", msg)
	}
	if len(failures) > 0 {
		return 1
	}
	fmt.Println("OK")
	return 0
}

// #endregion report
