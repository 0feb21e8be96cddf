// Package replay runs recorded conversations through the pure engine and
// compares rulings against expectations. Operates entirely in-memory; used
// to lock determinism and transition semantics.
package replay

import (
	"time"

	"github.com/iroslabs/iros-engine/internal/depth"
	"github.com/iroslabs/iros-engine/internal/engine"
	"github.com/iroslabs/iros-engine/internal/gate"
	"github.com/iroslabs/iros-engine/internal/mirror"
	"github.com/iroslabs/iros-engine/internal/northstar"
	"github.com/iroslabs/iros-engine/internal/signals"
	"github.com/iroslabs/iros-engine/internal/state"
	"github.com/iroslabs/iros-engine/internal/transition"
)

// #region types

// Interaction is a single recorded user turn for replay.
type Interaction struct {
	TurnID   string
	Text     string
	CoreHint string
	// Offset from the fixture's base clock, so hold-window behavior
	// replays identically regardless of wall time.
	OffsetSeconds int64
}

// ReplayConfig bundles all sub-engine configs for a replay run.
type ReplayConfig struct {
	Policy    transition.Policy
	NorthStar northstar.Config
	Gate      gate.Config
	Mirror    mirror.Config
}

// DefaultReplayConfig returns production defaults for every stage.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Policy:    transition.DefaultPolicy(),
		NorthStar: northstar.DefaultConfig(),
		Gate:      gate.DefaultConfig(),
		Mirror:    mirror.DefaultConfig(),
	}
}

// ReplayResult captures one turn's ruling.
type ReplayResult struct {
	TurnID   string
	Decision transition.Decision
	GateMode gate.Mode
	Anchor   northstar.Status
	Stage    string
	Reason   string
}

// ReplaySummary aggregates a replay run.
type ReplaySummary struct {
	TotalTurns   int
	Stays        int
	ForbidJumps  int
	IdeaLoops    int
	GateOpens    int
	Holds        int
	DeepestStage string
	FinalState   state.Snapshot
}

// #endregion types

// #region replay

// Replay feeds interactions through the engine in order, threading the
// snapshot and accumulating lookback history exactly as the live loop does.
func Replay(start state.Snapshot, interactions []Interaction, config ReplayConfig) ([]ReplayResult, state.Snapshot) {
	eng := engine.New(
		signals.NewKeywordExtractor(),
		config.Policy,
		config.NorthStar,
		config.Gate,
		config.Mirror,
	)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	current := start
	var history []gate.Turn
	results := make([]ReplayResult, 0, len(interactions))

	for _, inter := range interactions {
		decision := eng.RunTurn(current, engine.TurnInput{
			ConversationID: start.ConversationID,
			TurnID:         inter.TurnID,
			Text:           inter.Text,
			CoreHint:       inter.CoreHint,
			History:        history,
			Now:            base.Add(time.Duration(inter.OffsetSeconds) * time.Second),
		})

		results = append(results, ReplayResult{
			TurnID:   inter.TurnID,
			Decision: decision.Transition.Decision,
			GateMode: decision.Gate.Mode,
			Anchor:   decision.North.Status,
			Stage:    decision.Snapshot.LastDepthStage.String(),
			Reason:   decision.Transition.Reason,
		})

		current = decision.Snapshot
		history = append(history, gate.Turn{
			Role: "user", Text: inter.Text, CoreHint: inter.CoreHint,
		})
		if len(history) > config.Gate.LookbackTurns {
			history = history[len(history)-config.Gate.LookbackTurns:]
		}
	}

	return results, current
}

// Summarize computes aggregate stats from replay results, including the
// deepest stage the run reached.
func Summarize(results []ReplayResult, final state.Snapshot) ReplaySummary {
	s := ReplaySummary{
		TotalTurns: len(results),
		FinalState: final,
	}
	deepest := depth.Unknown
	for _, r := range results {
		switch r.Decision {
		case transition.DecisionStay:
			s.Stays++
		case transition.DecisionForbidJump:
			s.ForbidJumps++
		case transition.DecisionEnterIdeaLoop:
			s.IdeaLoops++
		case transition.DecisionOpenTGate:
			s.GateOpens++
		case transition.DecisionHold:
			s.Holds++
		}
		if stage := depth.ParseStage(r.Stage); stage.Compare(deepest) > 0 {
			deepest = stage
		}
	}
	s.DeepestStage = deepest.String()
	return s
}

// #endregion replay
