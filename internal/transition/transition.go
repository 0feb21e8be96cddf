package transition

import (
	"github.com/iroslabs/iros-engine/internal/depth"
	"github.com/iroslabs/iros-engine/internal/signals"
)

// #region run

// Run resolves this turn's transition. Deterministic, total, pure: identical
// inputs always yield identical results, and no input can make it panic.
// Rules are evaluated in priority order; the first match wins.
func Run(state State, sig signals.IntentSignals, policy Policy) Result {
	// 1. Reset dominance. A reset beats every other signal.
	if sig.HasResetEvidence {
		return Result{
			Decision:       DecisionStay,
			NextDepthStage: state.CurrentDepthStage,
			NextSpinLoop:   depth.LoopSRI,
			NextTGate:      depth.GateClosed,
			Reason:         "reset evidence present, all other signals ignored",
		}
	}

	anchored := state.AnchorEvent.Anchoring()

	// 2. Illegal jump guard. Recognizing → committing without an anchored
	// idea phase in between is the one transition that must never happen.
	// Unknown stages never count as having reached C.
	if policy.ForbidRtoCJump &&
		state.LastDepthStage.Band == depth.BandR &&
		state.CurrentDepthStage.Band == depth.BandC &&
		!anchored {
		return Result{
			Decision:       DecisionForbidJump,
			NextDepthStage: state.LastDepthStage,
			NextSpinLoop:   depth.LoopSRI,
			NextTGate:      depth.GateClosed,
			Reason:         "R→C jump without anchor, forced back to idea loop",
		}
	}

	// 3. Execution-without-anchor guard. An execution request cannot be
	// honored before a direction is fixed; route into the idea loop instead.
	if sig.WantsExecution && policy.RequireAnchorSetForCommit && !anchored {
		return Result{
			Decision:       DecisionEnterIdeaLoop,
			NextDepthStage: state.CurrentDepthStage,
			NextSpinLoop:   depth.LoopSRI,
			NextTGate:      depth.GateClosed,
			Reason:         "execution requested without anchor, entering idea loop",
		}
	}

	// 4. Idea-loop continuation / gate opening. Behavioral evidence — never
	// sentiment — opens the gate. Priority: commit > choice > repeat.
	if sig.WantsIdeas || state.CurrentSpinLoop == depth.LoopSRI {
		evidence := behavioralEvidence(sig)
		if evidence != "" && policy.TGateRequiresBehavioralEvidence {
			return Result{
				Decision:       DecisionOpenTGate,
				NextDepthStage: state.CurrentDepthStage,
				NextSpinLoop:   depth.LoopTCF,
				NextTGate:      depth.GateOpen,
				Reason:         "t-gate opened on " + evidence + " evidence",
			}
		}
		return Result{
			Decision:       DecisionEnterIdeaLoop,
			NextDepthStage: state.CurrentDepthStage,
			NextSpinLoop:   depth.LoopSRI,
			NextTGate:      depth.GateClosed,
			Reason:         "continuing idea loop, no behavioral evidence",
		}
	}

	// 5. Gate already open with an anchor set: hold position, wait for commit.
	if state.TGate == depth.GateOpen && anchored {
		return Result{
			Decision:       DecisionHold,
			NextDepthStage: state.CurrentDepthStage,
			NextSpinLoop:   state.CurrentSpinLoop,
			NextTGate:      depth.GateOpen,
			Reason:         "gate open with anchor set, holding for commit",
		}
	}

	// 6. Default: no transition.
	return Result{
		Decision:       DecisionStay,
		NextDepthStage: state.CurrentDepthStage,
		NextSpinLoop:   state.CurrentSpinLoop,
		NextTGate:      state.TGate,
		Reason:         "no transition condition matched",
	}
}

// #endregion run

// #region helpers

// behavioralEvidence returns the strongest evidence tag present, or "".
// Commit outranks choice outranks repeat.
func behavioralEvidence(sig signals.IntentSignals) string {
	switch {
	case sig.HasCommitEvidence:
		return "commit"
	case sig.HasChoiceEvidence:
		return "choice"
	case sig.HasRepeatEvidence:
		return "repeat"
	}
	return ""
}

// #endregion helpers
