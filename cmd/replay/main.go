package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/iroslabs/iros-engine/internal/replay"
)

// #region main

func main() {
	verbose := flag.Bool("v", false, "print every turn's ruling")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [-v] <fixture.json> [fixture2.json ...]")
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		if !runFixture(path, *verbose) {
			failed++
		}
	}
	if failed > 0 {
		log.Fatalf("%d fixture(s) failed", failed)
	}
}

// #endregion main

// #region run-fixture

func runFixture(path string, verbose bool) bool {
	fixture, err := replay.LoadFixture(path)
	if err != nil {
		log.Printf("FAIL %s: %v", path, err)
		return false
	}

	results, final := replay.Replay(
		fixture.StartSnapshot(),
		fixture.ToInteractions(),
		replay.DefaultReplayConfig(),
	)

	if verbose {
		for _, r := range results {
			fmt.Printf("  %-12s decision=%-16s gate=%-6s anchor=%-9s stage=%s\n",
				r.TurnID, r.Decision, r.GateMode, r.Anchor, r.Stage)
		}
	}

	summary := replay.Summarize(results, final)
	fmt.Printf("%s: %d turns (stay=%d forbid=%d idea=%d open=%d hold=%d) deepest=%s final=%s\n",
		path, summary.TotalTurns, summary.Stays, summary.ForbidJumps,
		summary.IdeaLoops, summary.GateOpens, summary.Holds,
		summary.DeepestStage, summary.FinalState.LastDepthStage)

	mismatches := replay.Verify(fixture, results)
	if len(mismatches) > 0 {
		for _, m := range mismatches {
			log.Printf("  MISMATCH %s", m)
		}
		log.Printf("FAIL %s: %d mismatches", path, len(mismatches))
		return false
	}
	return true
}

// #endregion run-fixture
