package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/logging"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/sampler"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/session"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

// #region main
func main() {
	dbPath := envOr("MASTERY_DB", "mastery_map.db")

	st, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	if err := logging.EnsureSchema(st.DB()); err != nil {
		log.Fatalf("failed to migrate diagnostics: %v", err)
	}

	items, err := pool.NewItemStore(st.DB())
	if err != nil {
		log.Fatalf("failed to open item pool: %v", err)
	}
	all, err := items.List()
	if err != nil {
		log.Fatalf("failed to list items: %v", err)
	}
	if len(all) == 0 {
		log.Fatalf("item pool is empty; run seed-items against %s first", dbPath)
	}

	row, err := st.CreateSession()
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	sink := logging.NewStoreSink(st.DB(), row.SessionID, nil)
	sess := session.New(row.SessionID, session.DefaultSessionConfig(), st, items, sink)

	fmt.Println("Mastery Map tutor ready.")
	fmt.Printf("  DB: %s | Session: %s | Items: %d\n", dbPath, row.SessionID, len(all))
	fmt.Println("Answer with y (correct), n (incorrect), s (skip).")
	fmt.Println("Modes: easy | hard | weak (one-shot). quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	sel, err := sess.Next(sampler.ModeAuto)
	if err != nil {
		log.Fatalf("selection failed: %v", err)
	}

	for {
		if sel == nil {
			fmt.Println("Nothing left to ask: the pool is exhausted.")
			break
		}
		item, err := items.Get(sel.QuestionID)
		if err != nil {
			log.Fatalf("selected item vanished: %v", err)
		}
		fmt.Printf("\n[%s] question %s (difficulty %d at %.2f, %.2f)\n",
			sel.Phase, item.QuestionID, item.Difficulty, item.X, item.Y)
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch input {
		case "quit", "exit":
			return
		case "easy", "hard", "weak":
			mode := map[string]sampler.Mode{
				"easy": sampler.ModeEasiest,
				"hard": sampler.ModeHardest,
				"weak": sampler.ModeWeakest,
			}[input]
			if err := sess.SetMode(mode); err != nil {
				fmt.Println(err)
				continue
			}
			sel, err = sess.Next(sampler.ModeAuto)
			if err != nil {
				log.Fatalf("selection failed: %v", err)
			}
			continue
		case "y", "n", "s":
			var res *session.TurnResult
			if input == "s" {
				res, err = sess.Skip(item.QuestionID)
			} else {
				res, err = sess.Answer(item.QuestionID, input == "y")
			}
			if err != nil {
				log.Fatalf("turn failed: %v", err)
			}
			fmt.Printf("answered %d | coverage %.1f%% | phase %s",
				sess.AnsweredCount(), res.Coverage*100, res.Phase)
			if res.Guard.Action == "warn" {
				fmt.Printf(" | guard: %s", res.Guard.Reason)
			}
			fmt.Println()
			sel = res.Selection
		default:
			fmt.Println("y / n / s / easy / hard / weak / quit")
		}
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
