// Package recall detects whether the user is asking the system to recall
// prior state, and if so what retrieval key the persistence layer should
// look up. The trigger itself performs no I/O.
package recall

import (
	"strings"
	"unicode"
)

// #region trigger-types

// Kind classifies the recall request.
type Kind string

const (
	KindNone        Kind = "none"
	KindRecentTopic Kind = "recent_topic" // interrogative turn, no explicit recall phrasing
	KindKeyword     Kind = "keyword"      // explicit "do you remember X" phrasing
)

// Trigger is the detection result.
type Trigger struct {
	Kind    Kind
	Keyword string // populated only for KindKeyword
}

// #endregion trigger-types

// #region recall-phrases

// Explicit recall phrasings. The topic substring follows the phrase for the
// English forms and precedes the marker for the Japanese forms. A bare
// "remember" is deliberately absent: "I can't remember his name" is not a
// retrieval request.
var enRecallPrefixes = []string{
	"do you remember", "can you remember", "do you recall",
	"remember when i said", "remember what i said about",
}

// More specific markers first so "のこと覚えて" claims the connective
// instead of leaving it glued to the topic.
var jpRecallMarkers = []string{
	"のこと覚えて", "言ったの覚えて", "って言ったよね", "話したよね",
	"覚えていますか", "覚えてますか", "覚えてる？", "覚えてる", "覚えてない",
}

// #endregion recall-phrases

// #region fillers

// fillerWords are stripped from the extracted topic substring.
var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "that": true, "this": true,
	"about": true, "when": true, "what": true, "which": true, "i": true,
	"we": true, "you": true, "my": true, "our": true, "said": true,
	"told": true, "mentioned": true, "talked": true, "time": true,
	"thing": true, "stuff": true,
	"あの": true, "その": true, "この": true, "こと": true, "やつ": true,
	"前に": true, "さっき": true, "話": true,
}

// #endregion fillers

// #region detect

// Detect classifies the turn. Total: garbage input yields KindNone.
// Explicit recall phrasing wins; an interrogative turn without it degrades
// to a recent-topic lookup; everything else is none.
func Detect(text string) Trigger {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Trigger{Kind: KindNone}
	}
	lower := strings.ToLower(trimmed)

	for _, prefix := range enRecallPrefixes {
		idx := strings.Index(lower, prefix)
		if idx < 0 {
			continue
		}
		topic := cleanTopic(trimmed[idx+len(prefix):])
		if topic != "" {
			return Trigger{Kind: KindKeyword, Keyword: topic}
		}
		return Trigger{Kind: KindRecentTopic}
	}

	for _, marker := range jpRecallMarkers {
		idx := strings.Index(trimmed, marker)
		if idx < 0 {
			continue
		}
		topic := cleanTopic(trimmed[:idx])
		if topic != "" {
			return Trigger{Kind: KindKeyword, Keyword: topic}
		}
		return Trigger{Kind: KindRecentTopic}
	}

	if strings.ContainsAny(trimmed, "?？") {
		return Trigger{Kind: KindRecentTopic}
	}
	return Trigger{Kind: KindNone}
}

// #endregion detect

// #region clean-topic

// cleanTopic strips punctuation and filler words from a topic substring and
// collapses it to a compact retrieval key.
func cleanTopic(raw string) string {
	raw = strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
	if raw == "" {
		return ""
	}

	// Space-delimited languages: drop fillers token by token.
	if strings.ContainsRune(raw, ' ') || isASCII(raw) {
		var kept []string
		for _, w := range strings.Fields(raw) {
			t := strings.ToLower(strings.TrimFunc(w, unicode.IsPunct))
			if t == "" || fillerWords[t] {
				continue
			}
			kept = append(kept, strings.TrimFunc(w, unicode.IsPunct))
		}
		if len(kept) > 6 {
			kept = kept[:6]
		}
		return strings.Join(kept, " ")
	}

	// Unsegmented text: strip leading filler particles only.
	for stripped := true; stripped; {
		stripped = false
		for f := range fillerWords {
			if strings.HasPrefix(raw, f) && len(raw) > len(f) {
				raw = raw[len(f):]
				stripped = true
			}
		}
	}
	if len([]rune(raw)) < 2 {
		return ""
	}
	return raw
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// #endregion clean-topic
