// Package gate decides, fresh each turn, whether the conversation may enter
// the intensified T-layer register. The three outcomes are ENTER, HOLD
// (hysteresis for an already-active deep mode), and OFF. Absent or
// ambiguous input always degrades to OFF, never to ENTER.
package gate

import (
	"strings"
	"time"
	"unicode"

	"github.com/iroslabs/iros-engine/internal/depth"
)

// #region deepen-banks

var declarationKeywords = []string{
	"i will ", "i'll ", "i'm going to ", "i am going to ", "i commit",
	"i've decided", "i have decided", "i declare",
	"やります", "やる。", "やるよ", "決めました", "決めた", "宣言します",
	"始めます", "続けます", "absolutely will",
}

var affirmationKeywords = []string{
	"yes, let's", "yes let's", "let's go", "i'm in", "i am in", "count me in",
	"that's it", "exactly that", "that's what i want",
	"うん、やる", "そうする", "それでいく", "それにする", "お願いします",
	"はい、やります", "よし",
}

var imperativeCommits = []string{
	"do it", "go ahead", "start now", "begin", "make it happen",
	"やろう", "いこう", "行こう", "始めよう", "進めよう",
}

var ackKeywords = []string{
	"ok", "okay", "yes", "yeah", "yep", "sure", "right", "go on", "and then",
	"continue", "more", "keep going",
	"うん", "はい", "ええ", "そう", "それで", "続けて", "なるほど", "たしかに",
}

// #endregion deepen-banks

// #region gate

// Gate evaluates deep-mode entry. Stateless; all state arrives via Input.
type Gate struct {
	config Config
}

// New creates a gate with the given configuration.
func New(config Config) *Gate {
	return &Gate{config: config}
}

// Compute produces this turn's ruling. Total: no input can make it fail.
// ENTER requires core + anchored north + deepen evidence simultaneously;
// HOLD keeps a recently-active deep mode alive across short continuations;
// everything else is OFF with machine-readable reasons.
func (g *Gate) Compute(in Input) Result {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	core := ExtractCore(in.Text, in.CoreHint, in.History, g.config.LookbackTurns)
	deepen := hasDeepenEvidence(in.Text)
	anchored := in.Memory.NorthAnchored

	// Reset evidence beats everything else in the turn, including the
	// hysteresis window: a short "やめる" must not ride HOLD.
	if in.Reset {
		return Result{
			OK:           true,
			Mode:         ModeOff,
			Reason:       "reset evidence, deep mode released",
			TLayerHint:   "shallow",
			Core:         core,
			ForceShallow: true,
		}
	}

	if core != "" && anchored && deepen {
		return Result{
			OK:               true,
			Mode:             ModeEnter,
			Reason:           "core + anchor + declaration all present",
			TLayerModeActive: true,
			TLayerHint:       "deep",
			Core:             core,
		}
	}

	// Hysteresis path: an already-active deep mode survives short
	// acknowledgements within the hold window. The committed terminal
	// stage never times out.
	if in.Memory.DeepModeActive && isContinuation(in.Text, g.config.MaxAckLen) {
		terminal := in.Memory.Stage == (depth.Stage{Band: depth.BandT, Ordinal: 3})
		inWindow := !in.Memory.DeepActiveSince.IsZero() &&
			now.Sub(in.Memory.DeepActiveSince) <= g.config.HoldWindow
		if terminal || inWindow {
			return Result{
				OK:               true,
				Mode:             ModeHold,
				Reason:           "short continuation inside hold window",
				TLayerModeActive: true,
				TLayerHint:       "deep",
				Core:             core,
			}
		}
	}

	var flags []string
	if core == "" {
		flags = append(flags, ReasonNoCore)
	}
	if !anchored {
		flags = append(flags, ReasonNoSunOrBlock)
	}
	if !deepen {
		flags = append(flags, ReasonNoDeclaration)
	}

	return Result{
		OK:           true,
		Mode:         ModeOff,
		Reason:       strings.Join(flags, "+"),
		Flags:        flags,
		TLayerHint:   "shallow",
		Core:         core,
		ForceShallow: true,
	}
}

// #endregion gate

// #region deepen

// hasDeepenEvidence reports whether the turn carries declaration,
// affirmation, or short-imperative commit language.
func hasDeepenEvidence(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	for _, kw := range declarationKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	for _, kw := range affirmationKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	// Imperative commits only count as whole short utterances; "do it"
	// buried in a long sentence is not a commit.
	if len([]rune(lower)) <= 12 {
		trimmed := strings.Trim(lower, "!。！ ")
		for _, kw := range imperativeCommits {
			if trimmed == kw {
				return true
			}
		}
	}
	return false
}

// #endregion deepen

// #region continuation

// isContinuation reports whether the turn is a very short acknowledgement
// that should not reset an active deep mode.
func isContinuation(text string, maxLen int) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return false
	}
	lower := strings.ToLower(strings.TrimFunc(trimmed, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	}))
	if lower == "" {
		return false
	}
	for _, kw := range ackKeywords {
		if lower == kw {
			return true
		}
	}
	// Anything this short without a question is treated as a continuation.
	return !strings.ContainsAny(trimmed, "?？") && len(runes) <= maxLen/2
}

// #endregion continuation
