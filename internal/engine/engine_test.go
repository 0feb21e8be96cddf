package engine

import (
	"testing"
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

var engineNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return New(
		signals.NewKeywordExtractor(),
		transition.DefaultPolicy(),
		northstar.DefaultConfig(),
		gate.DefaultConfig(),
		mirror.DefaultConfig(),
	)
}

func TestFreshConversationIdeaSeeking(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t1",
		Text: "What are my options for learning piano?",
		Now:  engineNow,
	})

	if d.Transition.Decision != transition.DecisionEnterIdeaLoop {
		t.Fatalf("expected enter_idea_loop, got %s", d.Transition.Decision)
	}
	if d.Snapshot.LastDepthStage != (depth.Stage{Band: depth.BandF, Ordinal: 1}) {
		t.Fatalf("idea seeking from S should propose F1, got %s", d.Snapshot.LastDepthStage)
	}
	if d.Gate.Mode != gate.ModeOff {
		t.Fatalf("nothing anchored yet, gate should be OFF, got %s", d.Gate.Mode)
	}
	if d.North.Status != northstar.StatusNone {
		t.Fatalf("no evidence yet, got %s", d.North.Status)
	}
	if d.Snapshot.DeepModeActive {
		t.Fatal("deep mode must not activate on OFF")
	}
}

func TestCommitWithCoreAnchorsAndEntersDeepMode(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")
	snap.LastDepthStage = depth.Stage{Band: depth.BandR, Ordinal: 2}
	snap.LastSpinLoop = depth.LoopTCF
	snap.TGate = depth.GateOpen
	snap.AnchorEvent = depth.AnchorSet
	snap.North = northstar.Meta{Status: northstar.StatusAnchored, Text: "move abroad", Confidence: 1.0}

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t2",
		Text: "I've decided. I want to move abroad next year.",
		Now:  engineNow,
	})

	if d.Transition.Decision != transition.DecisionHold {
		t.Fatalf("open gate with anchor should hold, got %s", d.Transition.Decision)
	}
	if d.North.Status != northstar.StatusAnchored || d.North.Event != "set" {
		t.Fatalf("commit + core should set the anchor, got %s/%s", d.North.Status, d.North.Event)
	}
	if d.Gate.Mode != gate.ModeEnter {
		t.Fatalf("core + anchor + declaration should ENTER, got %s (%s)", d.Gate.Mode, d.Gate.Reason)
	}
	if !d.Snapshot.DeepModeActive || !d.Snapshot.DeepActiveSince.Equal(engineNow) {
		t.Fatal("ENTER should activate deep mode stamped with the turn clock")
	}
	if d.Snapshot.AnchorEvent != depth.AnchorSet {
		t.Fatalf("snapshot should carry the set event, got %s", d.Snapshot.AnchorEvent)
	}
}

func TestExecutionFromReflectWithoutAnchorEntersIdeaLoop(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")
	snap.LastDepthStage = depth.Stage{Band: depth.BandR, Ordinal: 2}
	snap.LastSpinLoop = depth.LoopTCF

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t3",
		Text: "Ok, what's the next step?",
		Now:  engineNow,
	})

	// A bare execution request is not a stage jump; the anchor guard rules.
	if d.Transition.Decision != transition.DecisionEnterIdeaLoop {
		t.Fatalf("execution without anchor should enter the idea loop, got %s", d.Transition.Decision)
	}
	if d.Snapshot.LastDepthStage != (depth.Stage{Band: depth.BandR, Ordinal: 2}) {
		t.Fatalf("stage should hold at R2, got %s", d.Snapshot.LastDepthStage)
	}
	if d.Snapshot.LastSpinLoop != depth.LoopSRI || d.Snapshot.TGate != depth.GateClosed {
		t.Fatal("the ruling should land in the idea loop with a closed gate")
	}
}

func TestCommitFromReflectWithoutAnchorIsBlocked(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")
	snap.LastDepthStage = depth.Stage{Band: depth.BandR, Ordinal: 2}
	snap.LastSpinLoop = depth.LoopTCF

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t3b",
		Text: "やります",
		Now:  engineNow,
	})

	if d.Transition.Decision != transition.DecisionForbidJump {
		t.Fatalf("commit from R without anchor must be forbidden, got %s", d.Transition.Decision)
	}
	if d.Snapshot.LastDepthStage != (depth.Stage{Band: depth.BandR, Ordinal: 2}) {
		t.Fatalf("blocked jump should revert to R2, got %s", d.Snapshot.LastDepthStage)
	}
}

func TestResetReleasesEverything(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")
	snap.LastDepthStage = depth.Stage{Band: depth.BandC, Ordinal: 2}
	snap.LastSpinLoop = depth.LoopTCF
	snap.TGate = depth.GateOpen
	snap.AnchorEvent = depth.AnchorSet
	snap.North = northstar.Meta{Status: northstar.StatusAnchored, Text: "move abroad", Confidence: 1.0}
	snap.DeepModeActive = true
	snap.DeepActiveSince = engineNow.Add(-10 * time.Minute)

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t4",
		Text: "Never mind, forget it.",
		Now:  engineNow,
	})

	if d.Transition.Decision != transition.DecisionStay {
		t.Fatalf("reset should rule stay, got %s", d.Transition.Decision)
	}
	if d.Snapshot.LastSpinLoop != depth.LoopSRI || d.Snapshot.TGate != depth.GateClosed {
		t.Fatal("reset should return to SRI with a closed gate")
	}
	if d.North.Status != northstar.StatusReleased {
		t.Fatalf("reset should release the anchor, got %s", d.North.Status)
	}
	if d.Snapshot.AnchorEvent != depth.AnchorReset {
		t.Fatalf("snapshot should carry the reset event, got %s", d.Snapshot.AnchorEvent)
	}
	if d.Snapshot.DeepModeActive {
		t.Fatal("reset must deactivate deep mode")
	}
}

func TestShortResetCannotRideHoldWindow(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")
	snap.LastDepthStage = depth.Stage{Band: depth.BandC, Ordinal: 1}
	snap.LastSpinLoop = depth.LoopTCF
	snap.TGate = depth.GateOpen
	snap.AnchorEvent = depth.AnchorSet
	snap.North = northstar.Meta{Status: northstar.StatusAnchored, Text: "海外移住", Confidence: 1.0}
	snap.DeepModeActive = true
	snap.DeepActiveSince = engineNow.Add(-10 * time.Minute)

	// "やめる" is short enough to look like an acknowledgement; the reset
	// evidence must still win.
	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t4b",
		Text: "やめる",
		Now:  engineNow,
	})

	if d.North.Status != northstar.StatusReleased {
		t.Fatalf("reset should release the anchor, got %s", d.North.Status)
	}
	if d.Gate.Mode != gate.ModeOff || !d.Gate.ForceShallow {
		t.Fatalf("reset turn must not hold deep mode, got %s", d.Gate.Mode)
	}
	if d.Snapshot.DeepModeActive {
		t.Fatal("deep mode must not survive a reset turn")
	}
	if d.Snapshot.TGate != depth.GateClosed || d.Snapshot.LastSpinLoop != depth.LoopSRI {
		t.Fatal("reset should close the gate and return to SRI")
	}
}

func TestHoldLanguageKeepsCandidate(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t5",
		Text: "I'll go with piano for now, but I'm still thinking.",
		Now:  engineNow,
	})

	if d.North.Status != northstar.StatusCandidate || d.North.Event != "hold" {
		t.Fatalf("hold language should pin candidate, got %s/%s", d.North.Status, d.North.Event)
	}
	if d.Snapshot.AnchorEvent != depth.AnchorNone {
		t.Fatalf("held candidate is not an anchoring event, got %s", d.Snapshot.AnchorEvent)
	}
}

func TestChoiceEvidenceOpensGate(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t6",
		Text: "I'll go with the second one.",
		Now:  engineNow,
	})

	if d.Transition.Decision != transition.DecisionOpenTGate {
		t.Fatalf("choice evidence in SRI should open the gate, got %s", d.Transition.Decision)
	}
	if d.Snapshot.LastSpinLoop != depth.LoopTCF || d.Snapshot.TGate != depth.GateOpen {
		t.Fatal("open ruling should persist TCF with an open gate")
	}
	if d.North.Status != northstar.StatusCandidate {
		t.Fatalf("one choice is not enough to anchor, got %s", d.North.Status)
	}
}

func TestRecallAndMirrorAreAttached(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t7",
		Text: "Do you remember the piano plan?",
		Now:  engineNow,
	})

	if d.Recall.Kind != recall.KindKeyword || d.Recall.Keyword != "piano plan" {
		t.Fatalf("recall trigger missing: %+v", d.Recall)
	}
	if d.Mirror.ETurn == "" && !d.Mirror.Micro {
		t.Fatal("non-micro turn should carry an energy estimate")
	}
}

func TestHistorySuppliesTheCore(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")
	snap.North = northstar.Meta{Status: northstar.StatusAnchored, Text: "learn piano", Confidence: 1.0}
	snap.AnchorEvent = depth.AnchorSet

	d := eng.RunTurn(snap, TurnInput{
		ConversationID: "conv-1", TurnID: "t8",
		Text: "やります",
		History: []gate.Turn{
			{Role: "user", Text: "I want to learn piano properly"},
			{Role: "assistant", Text: "That sounds great."},
		},
		Now: engineNow,
	})

	if d.Gate.Mode != gate.ModeEnter {
		t.Fatalf("declaration + anchored + core from history should ENTER, got %s (%s)",
			d.Gate.Mode, d.Gate.Reason)
	}
	if d.Gate.Core != "learn piano properly" {
		t.Fatalf("core should come from lookback, got %q", d.Gate.Core)
	}
}

func TestRunTurnIsDeterministic(t *testing.T) {
	eng := newTestEngine()
	snap := state.NewSnapshot("conv-1")
	in := TurnInput{
		ConversationID: "conv-1", TurnID: "t9",
		Text: "I'll go with the second one.",
		Now:  engineNow,
	}

	a := eng.RunTurn(snap, in)
	b := eng.RunTurn(snap, in)
	if a.Transition != b.Transition {
		t.Fatalf("transition diverged: %+v vs %+v", a.Transition, b.Transition)
	}
	if a.Snapshot.LastDepthStage != b.Snapshot.LastDepthStage ||
		a.Snapshot.LastSpinLoop != b.Snapshot.LastSpinLoop ||
		a.Snapshot.TGate != b.Snapshot.TGate {
		t.Fatal("snapshot fields diverged for identical input")
	}
	if a.North.Status != b.North.Status || a.Gate.Mode != b.Gate.Mode {
		t.Fatal("sub-engine rulings diverged for identical input")
	}
}

func TestProposeStageAdvancesAndRollsOver(t *testing.T) {
	commit := signals.IntentSignals{HasCommitEvidence: true}

	got := proposeStage(depth.Stage{Band: depth.BandF, Ordinal: 2}, commit)
	if got != (depth.Stage{Band: depth.BandF, Ordinal: 3}) {
		t.Fatalf("F2 + commit should propose F3, got %s", got)
	}

	got = proposeStage(depth.Stage{Band: depth.BandC, Ordinal: 3}, commit)
	if got != (depth.Stage{Band: depth.BandI, Ordinal: 1}) {
		t.Fatalf("C3 + commit should roll into I1, got %s", got)
	}

	got = proposeStage(depth.Stage{Band: depth.BandT, Ordinal: 3}, commit)
	if got != (depth.Stage{Band: depth.BandT, Ordinal: 3}) {
		t.Fatalf("T3 is terminal, got %s", got)
	}

	got = proposeStage(depth.Unknown, signals.IntentSignals{})
	if got != (depth.Stage{Band: depth.BandS, Ordinal: 1}) {
		t.Fatalf("unknown stage should propose S1, got %s", got)
	}
}

func TestProposeStageReflectBand(t *testing.T) {
	r2 := depth.Stage{Band: depth.BandR, Ordinal: 2}

	got := proposeStage(r2, signals.IntentSignals{HasCommitEvidence: true})
	if got != (depth.Stage{Band: depth.BandC, Ordinal: 1}) {
		t.Fatalf("commit from R should propose C1, got %s", got)
	}

	// Execution alone is a request, not a stage claim.
	got = proposeStage(r2, signals.IntentSignals{WantsExecution: true})
	if got != r2 {
		t.Fatalf("bare execution request should hold at R2, got %s", got)
	}
}
