package logging

import "time"

// #region decision-entry

// DecisionEntry is one provenance row: what the engine ruled for one turn
// and why. The pure core never raises; callers record anomalies here.
type DecisionEntry struct {
	ConversationID string
	TurnID         string
	Decision       string
	GateMode       string
	AnchorStatus   string
	Reason         string
	SignalsJSON    string
	CreatedAt      time.Time
}

// #endregion decision-entry
