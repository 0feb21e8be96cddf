package signals

// #region intent-signals

// IntentSignals is the flat evidence record extracted from a single turn's
// text. Every field defaults to false; categories are independent so several
// can be true at once.
type IntentSignals struct {
	WantsIdeas        bool // user is asking for options / idea exploration
	WantsExecution    bool // user is asking for next steps / execution
	HasChoiceEvidence bool // user picked one option over others
	HasCommitEvidence bool // user declared they will do the thing
	HasRepeatEvidence bool // user restated the same direction again
	HasResetEvidence  bool // user wants to stop / start over
}

// #endregion intent-signals

// #region extractor-interface

// Extractor turns raw turn text into IntentSignals. Implementations must be
// pure and total: any input, including empty or garbage text, yields a
// fully-populated record. The transition engine depends only on this
// contract, never on how the signals were computed.
type Extractor interface {
	Extract(text string) IntentSignals
}

// #endregion extractor-interface
