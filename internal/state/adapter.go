package state

import (
	"encoding/json"
	"time"

	"github.com/iroslabs/iros-engine/internal/depth"
	"github.com/iroslabs/iros-engine/internal/northstar"
)

// The persisted payload historically carried a mix of camelCase and
// snake_case field names. Normalization happens exactly once, here, at the
// storage boundary; the rest of the engine only ever sees Snapshot.

// #region raw-payload

type rawEvidence struct {
	Type     string  `json:"type"`
	Ref      string  `json:"ref"`
	Strength float64 `json:"strength"`
}

type rawNorth struct {
	Status     string        `json:"status"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason"`
	UpdatedAt  string        `json:"updated_at"`
	Evidence   []rawEvidence `json:"evidence"`
	Event      string        `json:"event"`
}

// #endregion raw-payload

// #region decode

// decodeSnapshotPayload parses a stored payload, accepting both key styles.
// Total: missing or malformed fields degrade to the documented defaults
// rather than erroring.
func decodeSnapshotPayload(conversationID string, version int64, payload []byte) Snapshot {
	snap := NewSnapshot(conversationID)
	snap.Version = version

	var loose map[string]json.RawMessage
	if err := json.Unmarshal(payload, &loose); err != nil {
		return snap
	}

	snap.LastDepthStage = depth.ParseStage(pickString(loose, "last_depth_stage", "lastDepthStage"))
	if !snap.LastDepthStage.Known() {
		snap.LastDepthStage = depth.Stage{Band: depth.BandS, Ordinal: 1}
	}
	snap.LastSpinLoop = depth.ParseSpinLoop(pickString(loose, "last_spin_loop", "lastSpinLoop"))
	snap.TGate = depth.ParseTGate(pickString(loose, "t_gate", "tGate"))
	snap.AnchorEvent = depth.ParseAnchorEvent(pickString(loose, "anchor_event_type", "anchorEventType"))
	snap.DeepModeActive = pickBool(loose, "deep_mode_active", "deepModeActive")
	snap.DeepActiveSince = pickTime(loose, "deep_active_since", "deepActiveSince")
	snap.UpdatedAt = pickTime(loose, "updated_at", "updatedAt")

	if raw, ok := firstKey(loose, "north_star", "northStar"); ok {
		var rn rawNorth
		if err := json.Unmarshal(raw, &rn); err == nil {
			snap.North = decodeNorth(rn)
		}
	}

	return snap
}

func decodeNorth(rn rawNorth) northstar.Meta {
	meta := northstar.Meta{
		Text:       rn.Text,
		Confidence: rn.Confidence,
		Reason:     rn.Reason,
		Event:      rn.Event,
	}
	switch northstar.Status(rn.Status) {
	case northstar.StatusCandidate, northstar.StatusAnchored, northstar.StatusReleased:
		meta.Status = northstar.Status(rn.Status)
	default:
		meta.Status = northstar.StatusNone
	}
	if t, err := time.Parse(time.RFC3339Nano, rn.UpdatedAt); err == nil {
		meta.UpdatedAt = t
	}
	for _, ev := range rn.Evidence {
		switch northstar.EvidenceType(ev.Type) {
		case northstar.EvidenceUtterance, northstar.EvidenceChoice, northstar.EvidenceAction:
			meta.Evidence = append(meta.Evidence, northstar.Evidence{
				Type:     northstar.EvidenceType(ev.Type),
				Ref:      ev.Ref,
				Strength: ev.Strength,
			})
		}
	}
	return meta
}

// #endregion decode

// #region encode

// encodeSnapshotPayload writes the canonical snake_case payload.
func encodeSnapshotPayload(snap Snapshot) []byte {
	evidence := make([]rawEvidence, 0, len(snap.North.Evidence))
	for _, ev := range snap.North.Evidence {
		evidence = append(evidence, rawEvidence{
			Type:     string(ev.Type),
			Ref:      ev.Ref,
			Strength: ev.Strength,
		})
	}

	payload := map[string]interface{}{
		"last_depth_stage":  snap.LastDepthStage.String(),
		"last_spin_loop":    string(snap.LastSpinLoop),
		"t_gate":            string(snap.TGate),
		"anchor_event_type": string(snap.AnchorEvent),
		"deep_mode_active":  snap.DeepModeActive,
		"deep_active_since": formatTime(snap.DeepActiveSince),
		"updated_at":        formatTime(snap.UpdatedAt),
		"north_star": rawNorth{
			Status:     string(snap.North.Status),
			Text:       snap.North.Text,
			Confidence: snap.North.Confidence,
			Reason:     snap.North.Reason,
			UpdatedAt:  formatTime(snap.North.UpdatedAt),
			Evidence:   evidence,
			Event:      snap.North.Event,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// #endregion encode

// #region pick-helpers

func firstKey(loose map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := loose[k]; ok {
			return raw, true
		}
	}
	return nil, false
}

func pickString(loose map[string]json.RawMessage, keys ...string) string {
	raw, ok := firstKey(loose, keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func pickBool(loose map[string]json.RawMessage, keys ...string) bool {
	raw, ok := firstKey(loose, keys...)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

func pickTime(loose map[string]json.RawMessage, keys ...string) time.Time {
	s := pickString(loose, keys...)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// #endregion pick-helpers
