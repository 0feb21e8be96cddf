package gate

import (
	"time"

	"github.com/iroslabs/iros-engine/internal/depth"
)

// #region mode

// Mode is the gate's three-outcome ruling for the current turn.
type Mode string

const (
	ModeEnter Mode = "ENTER" // all deep-mode conditions satisfied this turn
	ModeHold  Mode = "HOLD"  // hysteresis: keep an already-active deep mode alive
	ModeOff   Mode = "OFF"   // insufficient evidence; render shallow
)

// #endregion mode

// #region off-reasons

// Machine-readable sub-condition failures carried on OFF results.
// Multiple can be present at once, joined by "+".
const (
	ReasonNoCore        = "NO_CORE"         // no usable core phrase extracted
	ReasonNoSunOrBlock  = "NO_SUN_OR_BLOCK" // north star not yet anchored
	ReasonNoDeclaration = "NO_DECLARATION"  // no declaration/affirmation evidence
)

// #endregion off-reasons

// #region result

// Result is the gate's full ruling. Computed fresh every turn; never
// persisted beyond what the orchestrator chooses to snapshot.
type Result struct {
	OK               bool
	Mode             Mode
	Reason           string
	Flags            []string // failed sub-conditions on OFF
	TLayerModeActive bool
	TLayerHint       string // vocabulary register hint for rendering
	Core             string // extracted core phrase, "" when none
	ForceShallow     bool   // downstream must use the shallow register
}

// #endregion result

// #region input

// Turn is one prior exchange supplied as lookback context.
type Turn struct {
	Role     string // "user" | "assistant"
	Text     string
	CoreHint string // core phrase recorded with the turn, if any
}

// MemoryState is the authoritative persisted snapshot consulted by the gate.
// Meta fields on Input are only a same-turn fallback.
type MemoryState struct {
	NorthAnchored   bool
	DeepModeActive  bool
	DeepActiveSince time.Time
	Stage           depth.Stage
}

// Input bundles everything the gate sees for one turn.
type Input struct {
	Text     string
	History  []Turn // most recent last; short lookback only
	CoreHint string // same-turn meta fallback for the core phrase
	Reset    bool   // reset evidence this turn; deep mode never survives it
	Memory   MemoryState
	Now      time.Time // injected clock; zero means time.Now
}

// #endregion input

// #region config

// HoldWindow bounds how long an inactive-but-recent deep mode can be kept
// alive by short continuations. Empirically tuned; flagged for product
// review. The committed terminal stage (T3) never times out.
const HoldWindow = 1 * time.Hour

// Config holds the gate's tunable constants.
type Config struct {
	HoldWindow     time.Duration
	LookbackTurns  int // how many history turns core extraction may consult
	MaxAckLen      int // max rune length for a HOLD continuation turn
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		HoldWindow:    HoldWindow,
		LookbackTurns: 6,
		MaxAckLen:     24,
	}
}

// #endregion config
