// Package engine orchestrates one conversation turn: signal extraction,
// the depth transition ruling, the anchor tracker update, the deep-mode
// gate, the mirror annotation, and the recall trigger, merged into one
// decision plus a complete next snapshot. Pure with respect to the
// supplied snapshot; persistence belongs to the caller.
package engine

import (
	"strings"
	"time"

	"github.com/iroslabs/iros-engine/internal/depth"
	"github.com/iroslabs/iros-engine/internal/gate"
	"github.com/iroslabs/iros-engine/internal/mirror"
	"github.com/iroslabs/iros-engine/internal/northstar"
	"github.com/iroslabs/iros-engine/internal/recall"
	"github.com/iroslabs/iros-engine/internal/signals"
	"github.com/iroslabs/iros-engine/internal/state"
	"github.com/iroslabs/iros-engine/internal/transition"
)

// #region hold-keywords

// Explicit "not yet" language: the user names a direction but declines to
// commit. Overrides evidence-driven anchoring for the turn.
var holdKeywords = []string{
	"not yet", "not ready to commit", "don't want to decide yet",
	"still thinking", "let me think about it",
	"まだ決めたくない", "まだ迷って", "もう少し考え", "保留で", "決めきれない",
}

// #endregion hold-keywords

// #region engine

// Engine wires the sub-engines behind one per-turn entry point.
type Engine struct {
	extractor  signals.Extractor
	policy     transition.Policy
	nsConfig   northstar.Config
	gateConfig gate.Config
	gate       *gate.Gate
	mirror     *mirror.Estimator
}

// New creates a fully wired engine. extractor may be any Extractor
// implementation; the engine depends only on the IntentSignals contract.
func New(
	extractor signals.Extractor,
	policy transition.Policy,
	nsConfig northstar.Config,
	gateConfig gate.Config,
	mirrorConfig mirror.Config,
) *Engine {
	return &Engine{
		extractor:  extractor,
		policy:     policy,
		nsConfig:   nsConfig,
		gateConfig: gateConfig,
		gate:       gate.New(gateConfig),
		mirror:     mirror.New(mirrorConfig),
	}
}

// #endregion engine

// #region run-turn

// RunTurn resolves one turn against the prior snapshot. Deterministic for a
// fixed Now; never errors — malformed input degrades to the safest ruling.
func (e *Engine) RunTurn(snap state.Snapshot, in TurnInput) TurnDecision {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	sig := e.extractor.Extract(in.Text)

	// Resolve the transition against the prior confirmed values and this
	// turn's provisional stage proposal.
	st := transition.State{
		LastDepthStage:    snap.LastDepthStage,
		LastSpinLoop:      snap.LastSpinLoop,
		CurrentDepthStage: proposeStage(snap.LastDepthStage, sig),
		CurrentSpinLoop:   snap.LastSpinLoop,
		TGate:             snap.TGate,
		AnchorEvent:       snap.AnchorEvent,
	}
	tr := transition.Run(st, sig, e.policy)

	// Anchor tracker update.
	core := gate.ExtractCore(in.Text, in.CoreHint, in.History, e.gateLookback())
	north, changed := northstar.Decide(snap.North, northstar.Input{
		Reset:         sig.HasResetEvidence,
		SetText:       anchorSetText(sig, core),
		Confirm:       sig.HasRepeatEvidence && snap.North.Text != "",
		HoldCandidate: containsAnyLower(in.Text, holdKeywords),
		NewEvidence:   turnEvidence(sig, in),
		Now:           now,
	}, e.nsConfig)

	// Deep-mode gate, consulting the post-update anchor status and the
	// stage the transition just resolved.
	gr := e.gate.Compute(gate.Input{
		Text:     in.Text,
		History:  in.History,
		CoreHint: in.CoreHint,
		Reset:    sig.HasResetEvidence,
		Memory: gate.MemoryState{
			NorthAnchored:   north.Status == northstar.StatusAnchored,
			DeepModeActive:  snap.DeepModeActive,
			DeepActiveSince: snap.DeepActiveSince,
			Stage:           tr.NextDepthStage,
		},
		Now: now,
	})

	// Turn-local annotations.
	mm := e.mirror.Estimate(mirror.Input{Text: in.Text, Stage: tr.NextDepthStage})
	rc := recall.Detect(in.Text)

	next := nextSnapshot(snap, tr, north, gr, now)

	return TurnDecision{
		Signals:      sig,
		Transition:   tr,
		North:        north,
		NorthChanged: changed,
		Gate:         gr,
		Mirror:       mm,
		Recall:       rc,
		Snapshot:     next,
	}
}

// #endregion run-turn

// #region propose-stage

// proposeStage derives this turn's provisional stage from the confirmed one.
// Behavioral evidence pushes forward one step; commit language from the
// reflect band proposes the commit band, which the jump guard then vets.
// A bare execution request stays put so the anchor guard rules on it
// instead of the jump guard. Unknown stages propose the safest band.
func proposeStage(last depth.Stage, sig signals.IntentSignals) depth.Stage {
	if !last.Known() {
		return depth.Stage{Band: depth.BandS, Ordinal: 1}
	}
	if sig.HasResetEvidence {
		return last
	}
	if sig.HasCommitEvidence && last.Band == depth.BandR {
		return depth.Stage{Band: depth.BandC, Ordinal: 1}
	}
	if sig.HasCommitEvidence || sig.HasChoiceEvidence {
		return advance(last)
	}
	if sig.WantsIdeas && last.Band == depth.BandS {
		return depth.Stage{Band: depth.BandF, Ordinal: 1}
	}
	return last
}

// advance moves one ordinal forward, rolling into the next band at 3.
// T3 is terminal.
func advance(s depth.Stage) depth.Stage {
	if s.Ordinal < 3 {
		return depth.Stage{Band: s.Band, Ordinal: s.Ordinal + 1}
	}
	if s.Band < depth.BandT {
		return depth.Stage{Band: s.Band + 1, Ordinal: 1}
	}
	return s
}

// #endregion propose-stage

// #region anchor-derivation

// anchorSetText returns the anchor text for an explicit set action: commit
// language plus an extracted core phrase. Either alone is not a set.
func anchorSetText(sig signals.IntentSignals, core string) string {
	if sig.HasCommitEvidence && core != "" {
		return core
	}
	return ""
}

// turnEvidence converts this turn's signals into typed anchor evidence.
// Strengths are fixed per type; sentiment contributes nothing.
func turnEvidence(sig signals.IntentSignals, in TurnInput) []northstar.Evidence {
	var evidence []northstar.Evidence
	if sig.HasCommitEvidence {
		evidence = append(evidence, northstar.Evidence{
			Type: northstar.EvidenceUtterance, Ref: in.TurnID + ":commit", Strength: 0.8,
		})
	}
	if sig.HasChoiceEvidence {
		evidence = append(evidence, northstar.Evidence{
			Type: northstar.EvidenceChoice, Ref: in.TurnID + ":choice", Strength: 0.6,
		})
	}
	if sig.HasRepeatEvidence {
		evidence = append(evidence, northstar.Evidence{
			Type: northstar.EvidenceUtterance, Ref: in.TurnID + ":repeat", Strength: 0.4,
		})
	}
	return evidence
}

// #endregion anchor-derivation

// #region next-snapshot

// nextSnapshot assembles the complete record the caller persists. Every
// field is carried explicitly; nothing survives by accident.
func nextSnapshot(
	snap state.Snapshot,
	tr transition.Result,
	north northstar.Meta,
	gr gate.Result,
	now time.Time,
) state.Snapshot {
	next := state.Snapshot{
		ConversationID: snap.ConversationID,
		Version:        snap.Version,
		LastDepthStage: tr.NextDepthStage,
		LastSpinLoop:   tr.NextSpinLoop,
		TGate:          tr.NextTGate,
		AnchorEvent:    anchorEventFromNorth(north),
		North:          north,
		UpdatedAt:      now,
	}

	switch gr.Mode {
	case gate.ModeEnter:
		next.DeepModeActive = true
		next.DeepActiveSince = now
	case gate.ModeHold:
		next.DeepModeActive = true
		next.DeepActiveSince = snap.DeepActiveSince
	default:
		next.DeepModeActive = false
	}

	return next
}

// anchorEventFromNorth maps the tracker's event onto the snapshot field.
func anchorEventFromNorth(north northstar.Meta) depth.AnchorEventType {
	switch north.Event {
	case "set":
		return depth.AnchorSet
	case "confirm":
		return depth.AnchorConfirm
	case "reset":
		return depth.AnchorReset
	}
	if north.Status == northstar.StatusAnchored {
		return depth.AnchorSet
	}
	return depth.AnchorNone
}

// #endregion next-snapshot

// #region helpers

func (e *Engine) gateLookback() int {
	return e.gateConfig.LookbackTurns
}

func containsAnyLower(text string, bank []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range bank {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// #endregion helpers
