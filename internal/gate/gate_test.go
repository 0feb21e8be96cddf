package gate

import (
	"strings"
	"testing"
	"time"

	"github.com/iroslabs/iros-engine/internal/depth"
)

var gateNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEnterRequiresAllThreeConditions(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text:   "I've decided. I want to move abroad next year.",
		Memory: MemoryState{NorthAnchored: true},
		Now:    gateNow,
	})
	if res.Mode != ModeEnter {
		t.Fatalf("expected ENTER, got %s (%s)", res.Mode, res.Reason)
	}
	if !res.TLayerModeActive || res.TLayerHint != "deep" {
		t.Fatal("ENTER should activate the deep register")
	}
	if res.Core == "" {
		t.Fatal("ENTER should carry the extracted core")
	}
}

func TestOffWhenNorthNotAnchored(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text:   "I've decided. I want to move abroad next year.",
		Memory: MemoryState{NorthAnchored: false},
		Now:    gateNow,
	})
	if res.Mode != ModeOff {
		t.Fatalf("expected OFF, got %s", res.Mode)
	}
	if !strings.Contains(res.Reason, ReasonNoSunOrBlock) {
		t.Fatalf("expected %s flag, got %q", ReasonNoSunOrBlock, res.Reason)
	}
	if !res.ForceShallow || res.TLayerHint != "shallow" {
		t.Fatal("OFF must force the shallow register")
	}
}

func TestOffWhenNoDeclaration(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text:   "I want to move abroad someday, maybe.",
		Memory: MemoryState{NorthAnchored: true},
		Now:    gateNow,
	})
	if res.Mode != ModeOff {
		t.Fatalf("expected OFF, got %s", res.Mode)
	}
	if !strings.Contains(res.Reason, ReasonNoDeclaration) {
		t.Fatalf("expected %s flag, got %q", ReasonNoDeclaration, res.Reason)
	}
}

func TestOffCollectsAllFailedFlags(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{Text: "hmm", Now: gateNow})
	if res.Mode != ModeOff {
		t.Fatalf("expected OFF, got %s", res.Mode)
	}
	for _, want := range []string{ReasonNoCore, ReasonNoSunOrBlock, ReasonNoDeclaration} {
		if !strings.Contains(res.Reason, want) {
			t.Fatalf("expected flag %s in %q", want, res.Reason)
		}
	}
	if len(res.Flags) != 3 {
		t.Fatalf("expected 3 flags, got %v", res.Flags)
	}
}

func TestHoldKeepsActiveDeepModeAlive(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text: "ok",
		Memory: MemoryState{
			NorthAnchored:   true,
			DeepModeActive:  true,
			DeepActiveSince: gateNow.Add(-30 * time.Minute),
		},
		Now: gateNow,
	})
	if res.Mode != ModeHold {
		t.Fatalf("expected HOLD, got %s (%s)", res.Mode, res.Reason)
	}
	if !res.TLayerModeActive {
		t.Fatal("HOLD should keep the deep register active")
	}
}

func TestResetSuppressesHold(t *testing.T) {
	g := New(DefaultConfig())

	// Same shape as a HOLD-worthy turn, but carrying reset evidence.
	res := g.Compute(Input{
		Text:  "やめる",
		Reset: true,
		Memory: MemoryState{
			NorthAnchored:   true,
			DeepModeActive:  true,
			DeepActiveSince: gateNow.Add(-10 * time.Minute),
		},
		Now: gateNow,
	})
	if res.Mode != ModeOff {
		t.Fatalf("reset turn must not hold deep mode, got %s", res.Mode)
	}
	if res.TLayerModeActive || !res.ForceShallow || res.TLayerHint != "shallow" {
		t.Fatal("reset must force the shallow register")
	}
}

func TestResetSuppressesEnter(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text:   "I've decided. I want to move abroad next year.",
		Reset:  true,
		Memory: MemoryState{NorthAnchored: true},
		Now:    gateNow,
	})
	if res.Mode != ModeOff {
		t.Fatalf("reset outranks a same-turn declaration, got %s", res.Mode)
	}
}

func TestHoldExpiresOutsideWindow(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text: "ok",
		Memory: MemoryState{
			NorthAnchored:   true,
			DeepModeActive:  true,
			DeepActiveSince: gateNow.Add(-2 * time.Hour),
		},
		Now: gateNow,
	})
	if res.Mode != ModeOff {
		t.Fatalf("stale deep mode should fall to OFF, got %s", res.Mode)
	}
}

func TestTerminalStageNeverTimesOut(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text: "うん",
		Memory: MemoryState{
			NorthAnchored:   true,
			DeepModeActive:  true,
			DeepActiveSince: gateNow.Add(-48 * time.Hour),
			Stage:           depth.Stage{Band: depth.BandT, Ordinal: 3},
		},
		Now: gateNow,
	})
	if res.Mode != ModeHold {
		t.Fatalf("T3 deep mode must never time out, got %s", res.Mode)
	}
}

func TestLongTurnIsNotAContinuation(t *testing.T) {
	g := New(DefaultConfig())

	res := g.Compute(Input{
		Text: "Actually, let me tell you about something completely different that happened",
		Memory: MemoryState{
			NorthAnchored:   true,
			DeepModeActive:  true,
			DeepActiveSince: gateNow.Add(-5 * time.Minute),
		},
		Now: gateNow,
	})
	if res.Mode == ModeHold {
		t.Fatal("a long turn must not ride the hold window")
	}
}

func TestImperativeOnlyCountsAsWholeShortUtterance(t *testing.T) {
	if !hasDeepenEvidence("do it") {
		t.Fatal("bare 'do it' should count as deepen evidence")
	}
	if hasDeepenEvidence("I wonder if I should just do it or wait another year") {
		t.Fatal("'do it' inside a long sentence must not count")
	}
}

func TestJapaneseDeclaration(t *testing.T) {
	if !hasDeepenEvidence("決めました。来年、海外に行きます。") {
		t.Fatal("決めました should count as a declaration")
	}
}

func TestExtractCorePrefersMetaHint(t *testing.T) {
	core := ExtractCore("I want to learn piano", "move abroad", nil, 6)
	if core != "move abroad" {
		t.Fatalf("meta hint should win, got %q", core)
	}
}

func TestExtractCoreQuotedSpan(t *testing.T) {
	core := ExtractCore("やっぱり「海外移住」のことなんだけど", "", nil, 6)
	if core != "海外移住" {
		t.Fatalf("expected quoted span, got %q", core)
	}
}

func TestExtractCoreEnglishClause(t *testing.T) {
	core := ExtractCore("Honestly I want to change careers, but it's scary.", "", nil, 6)
	if core != "change careers" {
		t.Fatalf("expected clause tail, got %q", core)
	}
}

func TestExtractCoreJapaneseClause(t *testing.T) {
	core := ExtractCore("転職の件だけど、英語の勉強ができない", "", nil, 6)
	if core != "英語の勉強" {
		t.Fatalf("expected JP clause head, got %q", core)
	}
}

func TestExtractCoreFallsBackToHistory(t *testing.T) {
	history := []Turn{
		{Role: "user", Text: "I want to learn piano properly"},
		{Role: "assistant", Text: "That sounds wonderful."},
	}
	core := ExtractCore("yes", "", history, 6)
	if core != "learn piano properly" {
		t.Fatalf("expected core from history, got %q", core)
	}
}

func TestExtractCoreHistoryRespectsLookback(t *testing.T) {
	history := []Turn{
		{Role: "user", Text: "I want to learn piano properly"},
		{Role: "assistant", Text: "ok"},
		{Role: "user", Text: "hmm"},
		{Role: "assistant", Text: "ok"},
	}
	core := ExtractCore("yes", "", history, 2)
	if core != "" {
		t.Fatalf("turns outside lookback must be invisible, got %q", core)
	}
}

func TestRejectGarbageCores(t *testing.T) {
	for _, garbage := range []string{"", "これ", "that", "it", "!!", "…", "a", "ab"} {
		if !rejectCore(garbage) {
			t.Fatalf("%q should be rejected as a core", garbage)
		}
	}
	for _, good := range []string{"海外移住", "change careers", "英語の勉強"} {
		if rejectCore(good) {
			t.Fatalf("%q should be accepted as a core", good)
		}
	}
}

func TestComputeNeverPanicsOnGarbage(t *testing.T) {
	g := New(DefaultConfig())
	for _, text := range []string{"", "   ", "？？？", strings.Repeat("あ", 5000)} {
		res := g.Compute(Input{Text: text, Now: gateNow})
		if !res.OK {
			t.Fatalf("compute should always return an OK ruling for %q", text)
		}
		if res.Mode == ModeEnter {
			t.Fatalf("garbage must never produce ENTER for %q", text)
		}
	}
}
