package gate

import (
	"strings"
	"unicode"
)

// #region clause-patterns

// Intention/difficulty clause markers. The text before the marker is the
// candidate core. Longer markers first so "ができない" wins over "が".
var jpClauseMarkers = []string{
	"ができない", "ができるように", "ができたら",
	"したいんです", "したいです", "がしたい", "をしたい", "したい",
	"になりたい", "なりたい",
	"がつらい", "が難しい", "がうまくいかない", "に悩んで", "で悩んで",
	"をやりたい", "やりたい", "を変えたい", "変えたい", "を続けたい",
}

var enClausePrefixes = []string{
	"i want to ", "i wanna ", "i'd like to ", "i would like to ",
	"i need to ", "i'm trying to ", "i am trying to ",
	"i can't ", "i cannot ", "i'm struggling with ", "i am struggling with ",
	"i keep failing at ", "i wish i could ",
}

// #endregion clause-patterns

// #region garbage

// Pure demonstratives and other non-content fragments that must never
// become a core phrase.
var demonstratives = map[string]bool{
	"これ": true, "それ": true, "あれ": true, "ここ": true, "そこ": true,
	"この": true, "その": true, "あの": true,
	"this": true, "that": true, "it": true, "them": true, "these": true,
	"those": true, "stuff": true, "things": true, "something": true,
}

// rejectCore reports whether a candidate core phrase is generic or garbage.
func rejectCore(core string) bool {
	core = strings.TrimSpace(core)
	if core == "" {
		return true
	}
	if demonstratives[strings.ToLower(core)] {
		return true
	}
	// Symbol-only strings carry no content.
	hasContent := false
	runes := []rune(core)
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return true
	}
	// Very short non-content fragments: a single ASCII word under 3 runes,
	// or a lone kana character, is too thin to be the conversation's core.
	if len(runes) < 2 {
		return true
	}
	if len(runes) < 3 && runes[0] < 0x2E80 {
		return true
	}
	return false
}

// #endregion garbage

// #region extract-core

// ExtractCore finds the short phrase the conversation is actually about.
// Priority: recorded meta hint → quoted span → intention/difficulty clause,
// scanning the current text first and then recent history. Returns "" when
// nothing survives garbage rejection.
func ExtractCore(text string, coreHint string, history []Turn, lookback int) string {
	if c := strings.TrimSpace(coreHint); c != "" && !rejectCore(c) {
		return c
	}

	if c := coreFromText(text); c != "" {
		return c
	}

	// Scan recent user turns, newest first.
	start := len(history) - lookback
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		turn := history[i]
		if turn.Role != "user" {
			continue
		}
		if c := strings.TrimSpace(turn.CoreHint); c != "" && !rejectCore(c) {
			return c
		}
		if c := coreFromText(turn.Text); c != "" {
			return c
		}
	}
	return ""
}

// coreFromText tries quoted spans, then clause patterns, on one utterance.
func coreFromText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if c := quotedSpan(text); c != "" && !rejectCore(c) {
		return c
	}

	lower := strings.ToLower(text)
	for _, prefix := range enClausePrefixes {
		if idx := strings.Index(lower, prefix); idx >= 0 {
			rest := text[idx+len(prefix):]
			if c := trimClause(rest); !rejectCore(c) {
				return c
			}
		}
	}

	for _, marker := range jpClauseMarkers {
		if idx := strings.Index(text, marker); idx > 0 {
			head := text[:idx]
			if c := lastJPClause(head); !rejectCore(c) {
				return c
			}
		}
	}

	return ""
}

// quotedSpan returns the first span inside 「」, "", or '' quotes.
func quotedSpan(text string) string {
	pairs := [][2]string{{"「", "」"}, {`"`, `"`}, {"『", "』"}, {"'", "'"}}
	for _, p := range pairs {
		open := strings.Index(text, p[0])
		if open < 0 {
			continue
		}
		rest := text[open+len(p[0]):]
		end := strings.Index(rest, p[1])
		if end <= 0 {
			continue
		}
		return strings.TrimSpace(rest[:end])
	}
	return ""
}

// trimClause cuts an English clause at the first terminator.
func trimClause(rest string) string {
	for _, stop := range []string{".", ",", "?", "!", " but ", " because ", " so "} {
		if idx := strings.Index(strings.ToLower(rest), stop); idx >= 0 {
			rest = rest[:idx]
		}
	}
	words := strings.Fields(rest)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// lastJPClause returns the text after the last JP clause boundary particle
// or punctuation, so "転職の件だけど、英語の勉強" yields "英語の勉強".
func lastJPClause(head string) string {
	cut := -1
	for _, sep := range []string{"。", "、", "けど", "でも", "が、", "は、"} {
		if idx := strings.LastIndex(head, sep); idx >= 0 {
			end := idx + len(sep)
			if end > cut {
				cut = end
			}
		}
	}
	if cut >= 0 && cut < len(head) {
		head = head[cut:]
	}
	return strings.TrimSpace(head)
}

// #endregion extract-core
