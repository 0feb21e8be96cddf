// Package mirror estimates a turn-local emotional-energy annotation: a
// discrete energy level, polarity, and a confidence score. The output
// annotates the current turn only and never overwrites persisted identity.
package mirror

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// #region energy-banks

// energyBank pairs an energy level with its trigger keywords. Evaluated in
// priority order; the first hit wins.
type energyBank struct {
	energy   Energy
	polarity Polarity
	keywords []string
}

var energyBanks = []energyBank{
	{EnergySinking, PolarityNegative, []string{
		"exhausted", "hopeless", "give up", "worthless", "can't take",
		"depressed", "miserable", "drained", "crying",
		"疲れた", "もう無理", "しんどい", "つらい", "辛い", "絶望", "泣き",
	}},
	{EnergySurging, PolarityPositive, []string{
		"can't wait", "so excited", "let's go", "pumped", "fired up",
		"amazing", "incredible", "thrilled",
		"楽しみ", "ワクワク", "最高", "燃えて", "やるぞ",
	}},
	{EnergyRising, PolarityPositive, []string{
		"looking forward", "getting better", "hopeful", "motivated",
		"starting to", "i think i can", "feels possible",
		"良くなって", "前向き", "希望", "できそう", "少しずつ",
	}},
	{EnergyWavering, PolarityNegative, []string{
		"not sure", "i don't know", "maybe", "worried", "anxious", "afraid",
		"confused", "hesitant", "what if",
		"不安", "迷って", "わからない", "かもしれない", "怖い", "心配",
	}},
	{EnergySteady, PolarityNeutral, []string{
		"as usual", "same as always", "fine", "doing okay", "calm",
		"settled", "steadily",
		"いつも通り", "落ち着い", "普通", "変わりなく", "順調",
	}},
}

// #endregion energy-banks

// #region lexical-banks

var fillerTokens = map[string]bool{
	"lol": true, "lmao": true, "haha": true, "hmm": true, "hm": true,
	"ok": true, "k": true, "uh": true, "um": true, "eh": true,
	"w": true, "笑": true, "うん": true, "はい": true, "へえ": true,
	"ふーん": true, "そっか": true,
}

var selfRefKeywords = []string{"i ", "i'm", "i've", "my ", "me ", "myself", "私", "僕", "俺", "自分"}
var relationalKeywords = []string{"you", "we ", "us ", "together", "friend", "family", "partner", "あなた", "君", "一緒", "みんな", "家族"}
var temporalKeywords = []string{"today", "tomorrow", "yesterday", "next week", "someday", "now", "later", "今日", "明日", "昨日", "来週", "いつか", "今"}
var actionVerbs = []string{"do", "make", "build", "write", "start", "try", "change", "move", "learn", "practice", "やる", "作る", "書く", "始める", "試す", "変える", "学ぶ"}
var vagueKeywords = []string{"kind of", "sort of", "i guess", "whatever", "somehow", "stuff", "things", "なんとなく", "まあ", "とりあえず", "なんか", "たぶん"}

// #endregion lexical-banks

// #region estimator

// Estimator computes turn-local mirror annotations.
type Estimator struct {
	config Config
}

// New creates an estimator with the given configuration.
func New(config Config) *Estimator {
	return &Estimator{config: config}
}

// Estimate produces the annotation for one turn. Pure and total.
func (e *Estimator) Estimate(in Input) Meta {
	text := strings.TrimSpace(in.Text)
	micro := isMicro(text, e.config.MicroMaxRunes)

	energy, polarity := classifyEnergy(text, micro)
	confidence := scoreConfidence(text, micro)
	size := energySize(text)

	meta := Meta{
		ETurn:      energy,
		Polarity:   polarity,
		Confidence: confidence,
		Micro:      micro,
		Field: Field{
			ColorKey: colorKey(energy),
			Alpha:    confidence,
			Size:     size,
		},
	}

	// The compound key is only built from complete data: a present stage,
	// a classified energy, a known polarity, and enough confidence.
	if in.Stage.Known() &&
		energy != EnergyUnknown &&
		polarity != PolarityUnknown &&
		confidence >= e.config.MeaningKeyMinConfidence {
		meta.MeaningKey = fmt.Sprintf("%s_%s_%s", in.Stage, energy, polarity)
	}

	return meta
}

// #endregion estimator

// #region micro

// isMicro flags very short or low-information utterances: empty text, pure
// punctuation or emoji, lone filler tokens, or anything within the rune cap.
func isMicro(text string, maxRunes int) bool {
	if text == "" {
		return true
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return true
	}
	hasContent := false
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return true
	}
	if fillerTokens[strings.ToLower(text)] {
		return true
	}
	return false
}

// #endregion micro

// #region classify

// classifyEnergy walks the banks in priority order. No hit defaults to
// wavering rather than leaving the level empty; true micro turns are left
// unclassified entirely.
func classifyEnergy(text string, micro bool) (Energy, Polarity) {
	if micro {
		return EnergyUnknown, PolarityUnknown
	}
	lower := strings.ToLower(text)
	for _, bank := range energyBanks {
		for _, kw := range bank.keywords {
			if strings.Contains(lower, kw) {
				return bank.energy, bank.polarity
			}
		}
	}
	return EnergyWavering, PolarityNeutral
}

// #endregion classify

// #region confidence

// scoreConfidence builds a length-based base score, adds small bonuses for
// concrete reference categories, subtracts vagueness penalties, and clamps
// to [0.10, 0.95] — or [0.05, 0.45] for micro turns.
func scoreConfidence(text string, micro bool) float64 {
	runes := len([]rune(text))
	base := 0.20 + 0.50*math.Tanh(float64(runes)/80.0)

	lower := strings.ToLower(text)
	if containsAny(lower, selfRefKeywords) {
		base += 0.08
	}
	if containsAny(lower, relationalKeywords) {
		base += 0.05
	}
	if containsAny(lower, temporalKeywords) {
		base += 0.05
	}
	if containsAnyWord(lower, actionVerbs) {
		base += 0.07
	}
	if strings.ContainsAny(text, "?？") {
		base += 0.03
	}
	for _, kw := range vagueKeywords {
		if strings.Contains(lower, kw) {
			base -= 0.06
		}
	}

	if micro {
		return clampRange(base, 0.05, 0.45)
	}
	return clampRange(base, 0.10, 0.95)
}

// #endregion confidence

// #region size

// energySize maps text length onto (0, 1] with saturation, so a wall of
// text does not produce an unbounded field size.
func energySize(text string) float64 {
	runes := len([]rune(text))
	if runes == 0 {
		return 0.1
	}
	return 0.1 + 0.9*math.Tanh(float64(runes)/120.0)
}

// #endregion size

// #region helpers

func colorKey(energy Energy) string {
	switch energy {
	case EnergySurging:
		return "ember"
	case EnergyRising:
		return "dawn"
	case EnergySteady:
		return "moss"
	case EnergyWavering:
		return "mist"
	case EnergySinking:
		return "slate"
	}
	return "none"
}

func containsAny(lower string, bank []string) bool {
	for _, kw := range bank {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// containsAnyWord matches whole tokens for short verbs like "do" that would
// otherwise fire inside unrelated words.
func containsAnyWord(lower string, bank []string) bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	for _, kw := range bank {
		if set[kw] || strings.Contains(lower, kw) && len([]rune(kw)) > 3 {
			return true
		}
	}
	return false
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
