package transition

import "github.com/iroslabs/iros-engine/internal/depth"

// #region policy

// Policy is the static, declarative constraint surface the engine consults.
// It carries no logic: what counts as a violation lives here, how the engine
// reacts lives in Run.
type Policy struct {
	ForbidRtoCJump                  bool // R-band → C-band requires an anchor
	TGateRequiresBehavioralEvidence bool // gate opens on choice/commit/repeat only
	RequireAnchorSetForCommit       bool // execution requests need an anchor first
}

// DefaultPolicy returns the production constraint set. All guards on.
func DefaultPolicy() Policy {
	return Policy{
		ForbidRtoCJump:                  true,
		TGateRequiresBehavioralEvidence: true,
		RequireAnchorSetForCommit:       true,
	}
}

// #endregion policy

// #region state

// State is the minimal snapshot needed to decide a transition. Last* fields
// are the previously persisted (confirmed) values; Current* are this turn's
// provisional values before the engine resolves them.
type State struct {
	LastDepthStage    depth.Stage
	LastSpinLoop      depth.SpinLoop
	CurrentDepthStage depth.Stage
	CurrentSpinLoop   depth.SpinLoop
	TGate             depth.TGateState
	AnchorEvent       depth.AnchorEventType
}

// #endregion state

// #region decision

// Decision enumerates the engine's possible rulings for one turn.
type Decision string

const (
	DecisionStay          Decision = "stay"
	DecisionForbidJump    Decision = "forbid_jump"
	DecisionEnterIdeaLoop Decision = "enter_idea_loop"
	DecisionOpenTGate     Decision = "open_t_gate"
	DecisionHold          Decision = "hold"
)

// #endregion decision

// #region result

// Result is the engine's ruling plus the resolved next-state fields.
// Next* fields always carry a value; callers persist them as-is.
type Result struct {
	Decision       Decision
	NextDepthStage depth.Stage
	NextSpinLoop   depth.SpinLoop
	NextTGate      depth.TGateState
	Reason         string
}

// #endregion result
