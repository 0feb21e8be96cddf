package signals

import "strings"

// #region keyword-banks

var ideaKeywords = []string{
	"any ideas", "what are my options", "brainstorm", "what could i",
	"what should i consider", "what kind of", "suggestions", "alternatives",
	"what would you", "help me think", "not sure which", "what are some",
	"アイデア", "案を", "案は", "どんな選択肢", "何がいい", "どうしたらいい",
	"どうすれば", "考えたい", "迷って",
}

var executionKeywords = []string{
	"next step", "next steps", "how do i start", "let's do it", "lets do it",
	"make a plan", "action plan", "what do i do first", "how to begin",
	"get started", "execute", "implement",
	"次のステップ", "進め方", "やり方を教えて", "始めたい", "実行したい",
	"具体的に何を", "手順",
}

var choiceKeywords = []string{
	"i'll go with", "i will go with", "i pick", "i choose", "i chose",
	"option a", "option b", "the first one", "the second one", "that one",
	"i'd rather", "i prefer",
	"これにする", "こっちにする", "を選ぶ", "に決めた", "のほうがいい",
}

var commitKeywords = []string{
	"i will", "i'll do", "i'm going to", "i am going to", "i commit",
	"i've decided", "i have decided", "i'm doing", "starting today",
	"from now on", "i promise",
	"やります", "やる", "決めました", "決めた", "始めます", "続けます",
	"約束する", "絶対に",
}

var repeatKeywords = []string{
	"like i said", "as i said", "again,", "i keep coming back",
	"still want", "same as before", "as before",
	"さっきも言った", "やっぱり", "やはり", "また同じ", "変わらず", "前と同じ",
}

var resetKeywords = []string{
	"never mind", "nevermind", "forget it", "start over", "from scratch",
	"stop this", "i quit", "i give up", "drop it", "cancel that",
	"やめる", "やめたい", "やめます", "リセット", "最初から", "白紙に",
	"もういい", "なかったことに", "中止",
}

// #endregion keyword-banks

// #region keyword-extractor

// KeywordExtractor is the default rule-based Extractor. Each signal category
// is an independent keyword classifier; no history, no side effects.
type KeywordExtractor struct{}

// NewKeywordExtractor returns the default extractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// Extract classifies the text against each category bank independently.
func (e *KeywordExtractor) Extract(text string) IntentSignals {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return IntentSignals{}
	}
	return IntentSignals{
		WantsIdeas:        containsAny(lower, ideaKeywords),
		WantsExecution:    containsAny(lower, executionKeywords),
		HasChoiceEvidence: containsAny(lower, choiceKeywords),
		HasCommitEvidence: containsAny(lower, commitKeywords),
		HasRepeatEvidence: containsAny(lower, repeatKeywords),
		HasResetEvidence:  containsAny(lower, resetKeywords),
	}
}

// #endregion keyword-extractor

// #region helpers

func containsAny(lower string, bank []string) bool {
	for _, kw := range bank {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// #endregion helpers
