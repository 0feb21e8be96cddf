package engine

import (
	"time"

	"github.com/iroslabs/iros-engine/internal/gate"
	"github.com/iroslabs/iros-engine/internal/mirror"
	"github.com/iroslabs/iros-engine/internal/northstar"
	"github.com/iroslabs/iros-engine/internal/recall"
	"github.com/iroslabs/iros-engine/internal/signals"
	"github.com/iroslabs/iros-engine/internal/state"
	"github.com/iroslabs/iros-engine/internal/transition"
)

// #region turn-input

// TurnInput is everything one incoming user turn supplies.
type TurnInput struct {
	ConversationID string
	TurnID         string
	Text           string
	History        []gate.Turn // short lookback, oldest first
	CoreHint       string      // same-turn meta fallback for the gate
	Now            time.Time   // injected clock; zero means time.Now
}

// #endregion turn-input

// #region turn-decision

// TurnDecision is the merged per-turn output: the transition ruling, the
// sub-engine results, and the complete next snapshot for the caller to
// persist atomically per conversation.
type TurnDecision struct {
	Signals      signals.IntentSignals
	Transition   transition.Result
	North        northstar.Meta
	NorthChanged bool
	Gate         gate.Result
	Mirror       mirror.Meta
	Recall       recall.Trigger
	Snapshot     state.Snapshot
}

// #endregion turn-decision
