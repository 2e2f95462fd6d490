package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/danielpatrickdp/mastery-map/go-core/internal/pool"
	"github.com/danielpatrickdp/mastery-map/go-core/internal/store"
)

// #region main
func main() {
	dbPath := flag.String("db", envOr("MASTERY_DB", "mastery_map.db"), "path to mastery_map.db")
	count := flag.Int("count", 200, "number of items to generate")
	seed := flag.Int64("seed", 1, "PRNG seed for reproducible pools")
	clusters := flag.Int("clusters", 6, "number of topic clusters to place items around")
	flag.Parse()

	if *count <= 0 || *clusters <= 0 {
		fmt.Fprintln(os.Stderr, "usage: seed-items [--db path] [--count N] [--seed N] [--clusters N]")
		os.Exit(2)
	}

	fmt.Println("=== Item Pool Seed Tool ===")
	fmt.Printf("  DB: %s | Items: %d | Seed: %d | Clusters: %d\n", *dbPath, *count, *seed, *clusters)

	st, err := store.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	items, err := pool.NewItemStore(st.DB())
	if err != nil {
		log.Fatalf("failed to init item store: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	// Cluster centers scatter the pool so coverage grows unevenly, the way a
	// real curriculum groups questions by topic.
	type cluster struct{ cx, cy, spread float64 }
	centers := make([]cluster, *clusters)
	for i := range centers {
		centers[i] = cluster{
			cx:     0.1 + 0.8*rng.Float64(),
			cy:     0.1 + 0.8*rng.Float64(),
			spread: 0.05 + 0.10*rng.Float64(),
		}
	}

	written := 0
	perDifficulty := make(map[int]int)
	for i := 0; i < *count; i++ {
		c := centers[rng.Intn(len(centers))]
		x := clamp01(c.cx + c.spread*rng.NormFloat64())
		y := clamp01(c.cy + c.spread*rng.NormFloat64())

		// Difficulty skews toward the middle of the 1-4 range.
		difficulty := 1 + (rng.Intn(4)+rng.Intn(4))/2

		item := pool.Item{
			QuestionID: fmt.Sprintf("seed-%04d", i),
			X:          x,
			Y:          y,
			Difficulty: difficulty,
		}
		if err := items.Upsert(item); err != nil {
			log.Printf("upsert %s: %v", item.QuestionID, err)
			continue
		}
		written++
		perDifficulty[difficulty]++

		if (i+1)%50 == 0 || i+1 == *count {
			fmt.Printf("  [%d/%d] written\n", i+1, *count)
		}
	}

	fmt.Printf("\n=== Seed Complete ===\n")
	fmt.Printf("  Items written: %d\n", written)
	for d := 1; d <= 4; d++ {
		fmt.Printf("  Difficulty %d: %d\n", d, perDifficulty[d])
	}
}

// #endregion main

// #region helpers
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
