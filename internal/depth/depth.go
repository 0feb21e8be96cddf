package depth

import "strings"

// #region band

// Band is one of the six coarse conversation phases, ordered S<F<R<C<I<T.
// BandUnknown sorts below every real band so an unparseable stage is never
// treated as having progressed.
type Band int

const (
	BandUnknown Band = iota
	BandS            // start / recognize
	BandF            // explore
	BandR            // reflect
	BandC            // commit / create
	BandI            // integrate
	BandT            // transcend
)

var bandLetters = map[Band]string{
	BandS: "S", BandF: "F", BandR: "R", BandC: "C", BandI: "I", BandT: "T",
}

var lettersToBand = map[string]Band{
	"S": BandS, "F": BandF, "R": BandR, "C": BandC, "I": BandI, "T": BandT,
}

// String returns the single-letter band code, or "?" for unknown.
func (b Band) String() string {
	if s, ok := bandLetters[b]; ok {
		return s
	}
	return "?"
}

// #endregion band

// #region stage

// Stage is a symbolic point in the depth taxonomy: a band plus an ordinal 1-3.
// The zero value is the unknown stage.
type Stage struct {
	Band    Band
	Ordinal int
}

// Unknown is the stage every unparseable input degrades to.
var Unknown = Stage{}

// Known reports whether the stage parsed to a real band and ordinal.
func (s Stage) Known() bool {
	return s.Band != BandUnknown && s.Ordinal >= 1 && s.Ordinal <= 3
}

// String renders "R2"-style codes; unknown stages render as "unknown".
func (s Stage) String() string {
	if !s.Known() {
		return "unknown"
	}
	return s.Band.String() + string(rune('0'+s.Ordinal))
}

// Compare orders stages by band first, then ordinal.
// Returns -1, 0, or 1. Unknown stages sort below S1.
func (s Stage) Compare(other Stage) int {
	if s.Band != other.Band {
		if s.Band < other.Band {
			return -1
		}
		return 1
	}
	if s.Ordinal != other.Ordinal {
		if s.Ordinal < other.Ordinal {
			return -1
		}
		return 1
	}
	return 0
}

// ParseStage parses a "R2"-style code. It is total: anything that is not
// exactly one known band letter followed by an ordinal 1-3 yields Unknown.
func ParseStage(code string) Stage {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return Unknown
	}
	band, ok := lettersToBand[code[:1]]
	if !ok {
		return Unknown
	}
	ord := int(code[1] - '0')
	if ord < 1 || ord > 3 {
		return Unknown
	}
	return Stage{Band: band, Ordinal: ord}
}

// allStages lists the 18 known stages in ascending order.
func allStages() []Stage {
	stages := make([]Stage, 0, 18)
	for b := BandS; b <= BandT; b++ {
		for ord := 1; ord <= 3; ord++ {
			stages = append(stages, Stage{Band: b, Ordinal: ord})
		}
	}
	return stages
}

// #endregion stage

// #region spin-loop

// SpinLoop is the coarse regime flag: still exploring vs post-gate committing.
type SpinLoop string

const (
	LoopSRI SpinLoop = "SRI" // recognize / idea exploration
	LoopTCF SpinLoop = "TCF" // post-gate commit / execute
)

// ParseSpinLoop is total; anything unrecognized degrades to LoopSRI.
func ParseSpinLoop(code string) SpinLoop {
	if strings.EqualFold(strings.TrimSpace(code), string(LoopTCF)) {
		return LoopTCF
	}
	return LoopSRI
}

// #endregion spin-loop

// #region t-gate

// TGateState governs whether deep-mode prose may be rendered this turn.
type TGateState string

const (
	GateClosed TGateState = "closed"
	GateOpen   TGateState = "open"
)

// ParseTGate is total; anything unrecognized degrades to closed.
func ParseTGate(code string) TGateState {
	if strings.EqualFold(strings.TrimSpace(code), string(GateOpen)) {
		return GateOpen
	}
	return GateClosed
}

// #endregion t-gate

// #region anchor-event

// AnchorEventType is the kind of anchor-relevant action detected this turn.
type AnchorEventType string

const (
	AnchorNone    AnchorEventType = "none"
	AnchorConfirm AnchorEventType = "confirm"
	AnchorSet     AnchorEventType = "set"
	AnchorReset   AnchorEventType = "reset"
)

// ParseAnchorEvent is total; anything unrecognized degrades to AnchorNone.
func ParseAnchorEvent(code string) AnchorEventType {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case string(AnchorConfirm):
		return AnchorConfirm
	case string(AnchorSet):
		return AnchorSet
	case string(AnchorReset):
		return AnchorReset
	}
	return AnchorNone
}

// Anchoring reports whether the event fixes or re-affirms an anchor.
func (a AnchorEventType) Anchoring() bool {
	return a == AnchorSet || a == AnchorConfirm
}

// #endregion anchor-event
