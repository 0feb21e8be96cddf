// Package northstar tracks whether a user's stated direction is merely a
// candidate or has become anchored. Promotion is driven by accumulated
// behavioral evidence or an explicit set action — never by sentiment.
package northstar

import (
	"fmt"
	"time"
)

// #region status

// Status is the lifecycle of a north-star direction.
type Status string

const (
	StatusNone      Status = "none"
	StatusCandidate Status = "candidate"
	StatusAnchored  Status = "anchored"
	StatusReleased  Status = "released"
)

// #endregion status

// #region evidence

// EvidenceType categorizes anchor evidence. Sentiment is deliberately
// not a type: mood never justifies a promotion.
type EvidenceType string

const (
	EvidenceUtterance EvidenceType = "utterance"
	EvidenceChoice    EvidenceType = "choice"
	EvidenceAction    EvidenceType = "action"
)

// Evidence is one typed, weighted signal supporting a direction.
// Items are unique by (Type, Ref).
type Evidence struct {
	Type     EvidenceType
	Ref      string
	Strength float64 // clamped to [0, 1] on merge
}

// #endregion evidence

// #region meta

// Meta is the persisted north-star record for a conversation.
type Meta struct {
	Status     Status
	Text       string
	Confidence float64 // [0, 1]
	Reason     string
	UpdatedAt  time.Time
	Evidence   []Evidence
	Event      string // last event applied: none|confirm|set|reset|hold
}

// EmptyMeta returns the record for a conversation with no direction yet.
func EmptyMeta() Meta {
	return Meta{Status: StatusNone, Event: "none"}
}

// #endregion meta

// #region config

// EvidenceThreshold is the summed strength at which accumulated evidence
// alone promotes to anchored. Empirically tuned; flagged for product review.
const EvidenceThreshold = 1.8

// MaxEvidence bounds the rolling evidence window.
const MaxEvidence = 12

// Config holds the tracker's tunable constants.
type Config struct {
	EvidenceThreshold float64
	MaxEvidence       int
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		EvidenceThreshold: EvidenceThreshold,
		MaxEvidence:       MaxEvidence,
	}
}

// #endregion config

// #region input

// Input is everything this turn contributes to the tracker.
type Input struct {
	Reset         bool       // explicit reset action
	SetText       string     // non-empty means an explicit anchor-set action
	Confirm       bool       // re-affirmation; never overwrites existing text
	HoldCandidate bool       // user explicitly does not want to commit yet
	NewEvidence   []Evidence // behavioral evidence gathered this turn
	ProtectedKey  bool       // the current anchor carries a protected key
	Now           time.Time  // injected clock; zero means time.Now
}

// #endregion input

// #region decide

// Decide applies one turn's input to the previous record and returns the
// next record plus whether anything changed. Pure aside from the injected
// clock default; never errors.
func Decide(prev Meta, in Input, cfg Config) (Meta, bool) {
	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = MaxEvidence
	}
	if cfg.EvidenceThreshold <= 0 {
		cfg.EvidenceThreshold = EvidenceThreshold
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// 1. Explicit reset wins over everything — unless the anchor is protected.
	if in.Reset {
		if in.ProtectedKey && prev.Status == StatusAnchored {
			next := prev
			next.Event = "reset"
			next.Reason = "reset ignored: anchor carries protected key"
			next.UpdatedAt = now
			return next, true
		}
		return Meta{
			Status:    StatusReleased,
			Event:     "reset",
			Reason:    "explicit reset released the anchor",
			UpdatedAt: now,
		}, true
	}

	next := prev
	next.UpdatedAt = now
	next.Event = "none"

	// 2. Merge new evidence into the bounded, deduplicated window.
	merged, added := mergeEvidence(prev.Evidence, in.NewEvidence, cfg.MaxEvidence)
	next.Evidence = merged

	sum := 0.0
	for _, ev := range merged {
		sum += ev.Strength
	}

	// 3. Explicit hold overrides evidence: the user does not want to commit.
	if in.HoldCandidate {
		next.Status = StatusCandidate
		next.Event = "hold"
		next.Reason = "hold requested, keeping direction as candidate"
		next.Confidence = clamp01(sum / cfg.EvidenceThreshold)
		return next, changedFrom(prev, next) || added
	}

	// 4. Explicit set action anchors immediately.
	if in.SetText != "" {
		next.Status = StatusAnchored
		next.Text = in.SetText
		next.Event = "set"
		next.Reason = "explicit anchor set"
		next.Confidence = 1.0
		return next, true
	}

	// 5. Confirm re-affirms but never overwrites text.
	if in.Confirm {
		next.Event = "confirm"
		if prev.Status == StatusAnchored {
			next.Reason = "anchor confirmed"
			next.Confidence = 1.0
			return next, changedFrom(prev, next) || added
		}
		if prev.Text != "" {
			next.Status = StatusCandidate
			next.Reason = "candidate confirmed, awaiting evidence"
		}
	}

	// 6. Anchored is sticky: never silently demoted.
	if prev.Status == StatusAnchored {
		next.Status = StatusAnchored
		next.Confidence = 1.0
		if next.Reason == "" {
			next.Reason = "anchor held"
		}
		return next, changedFrom(prev, next) || added
	}

	// 7. Evidence-driven promotion.
	next.Confidence = clamp01(sum / cfg.EvidenceThreshold)
	if sum >= cfg.EvidenceThreshold {
		next.Status = StatusAnchored
		next.Reason = fmt.Sprintf("evidence strength %.2f reached threshold %.2f", sum, cfg.EvidenceThreshold)
		return next, true
	}
	if len(merged) > 0 && next.Status == StatusNone {
		next.Status = StatusCandidate
		next.Reason = "first evidence recorded"
	}

	return next, changedFrom(prev, next) || added
}

// #endregion decide

// #region merge

// mergeEvidence appends new items, clamping strength to [0,1], deduplicating
// by (Type, Ref), and dropping the oldest beyond max. Returns the merged
// window and whether anything new landed.
func mergeEvidence(existing, incoming []Evidence, max int) ([]Evidence, bool) {
	merged := make([]Evidence, len(existing))
	copy(merged, existing)

	seen := make(map[string]bool, len(merged))
	for _, ev := range merged {
		seen[string(ev.Type)+"\x00"+ev.Ref] = true
	}

	added := false
	for _, ev := range incoming {
		key := string(ev.Type) + "\x00" + ev.Ref
		if seen[key] {
			continue
		}
		seen[key] = true
		ev.Strength = clamp01(ev.Strength)
		merged = append(merged, ev)
		added = true
	}

	if len(merged) > max {
		merged = merged[len(merged)-max:]
	}
	return merged, added
}

// #endregion merge

// #region helpers

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func changedFrom(prev, next Meta) bool {
	return prev.Status != next.Status ||
		prev.Text != next.Text ||
		prev.Event != next.Event ||
		prev.Confidence != next.Confidence
}

// #endregion helpers
