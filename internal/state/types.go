package state

import (
	"time"

	"github.com/iroslabs/iros-engine/internal/depth"
	"github.com/iroslabs/iros-engine/internal/northstar"
)

// #region snapshot

// Snapshot is the one canonical persisted record per conversation. The
// engine reads a consistent snapshot and returns a complete next snapshot;
// it never mutates fragments in place.
type Snapshot struct {
	ConversationID  string
	Version         int64 // optimistic-update counter
	LastDepthStage  depth.Stage
	LastSpinLoop    depth.SpinLoop
	TGate           depth.TGateState
	AnchorEvent     depth.AnchorEventType
	North           northstar.Meta
	DeepModeActive  bool
	DeepActiveSince time.Time
	UpdatedAt       time.Time
}

// NewSnapshot returns the safest initial record for a conversation: lowest
// band, idea loop, gate closed, no anchor.
func NewSnapshot(conversationID string) Snapshot {
	return Snapshot{
		ConversationID: conversationID,
		Version:        0,
		LastDepthStage: depth.Stage{Band: depth.BandS, Ordinal: 1},
		LastSpinLoop:   depth.LoopSRI,
		TGate:          depth.GateClosed,
		AnchorEvent:    depth.AnchorNone,
		North:          northstar.EmptyMeta(),
	}
}

// #endregion snapshot

// #region turn-record

// TurnRecord is one stored exchange in a conversation's history.
type TurnRecord struct {
	TurnID    string
	Role      string // "user" | "assistant"
	Text      string
	MetaJSON  string
	CreatedAt time.Time
}

// #endregion turn-record
