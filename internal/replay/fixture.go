package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iroslabs/iros-engine/internal/depth"
	"github.com/iroslabs/iros-engine/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	ConversationID  string                  `json:"conversation_id"`
	StartStage      string                  `json:"start_stage"`
	Interactions    []FixtureInteraction    `json:"interactions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureInteraction mirrors Interaction with JSON tags.
type FixtureInteraction struct {
	TurnID        string `json:"turn_id"`
	Text          string `json:"text"`
	CoreHint      string `json:"core_hint"`
	OffsetSeconds int64  `json:"offset_seconds"`
}

// FixtureExpectedResult captures the expected ruling per turn.
type FixtureExpectedResult struct {
	TurnID   string `json:"turn_id"`
	Decision string `json:"decision"`
	GateMode string `json:"gate_mode"`
	Anchor   string `json:"anchor"`
}

// #endregion fixture-types

// #region load

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.ConversationID == "" {
		f.ConversationID = "replay"
	}
	return f, nil
}

// #endregion load

// #region convert

// StartSnapshot builds the initial snapshot declared by the fixture.
// Unparseable stage codes keep the safe default.
func (f Fixture) StartSnapshot() state.Snapshot {
	snap := state.NewSnapshot(f.ConversationID)
	if stage := depth.ParseStage(f.StartStage); stage.Known() {
		snap.LastDepthStage = stage
	}
	return snap
}

// ToInteractions converts the fixture rows into harness inputs.
func (f Fixture) ToInteractions() []Interaction {
	out := make([]Interaction, len(f.Interactions))
	for i, fi := range f.Interactions {
		out[i] = Interaction{
			TurnID:        fi.TurnID,
			Text:          fi.Text,
			CoreHint:      fi.CoreHint,
			OffsetSeconds: fi.OffsetSeconds,
		}
	}
	return out
}

// Verify compares replay results against the fixture's expectations.
// Returns mismatch descriptions; empty means the run matched.
func Verify(f Fixture, results []ReplayResult) []string {
	byTurn := make(map[string]ReplayResult, len(results))
	for _, r := range results {
		byTurn[r.TurnID] = r
	}

	var mismatches []string
	for _, want := range f.ExpectedResults {
		got, ok := byTurn[want.TurnID]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: no result", want.TurnID))
			continue
		}
		if want.Decision != "" && string(got.Decision) != want.Decision {
			mismatches = append(mismatches, fmt.Sprintf(
				"%s: decision %s, want %s", want.TurnID, got.Decision, want.Decision))
		}
		if want.GateMode != "" && string(got.GateMode) != want.GateMode {
			mismatches = append(mismatches, fmt.Sprintf(
				"%s: gate %s, want %s", want.TurnID, got.GateMode, want.GateMode))
		}
		if want.Anchor != "" && string(got.Anchor) != want.Anchor {
			mismatches = append(mismatches, fmt.Sprintf(
				"%s: anchor %s, want %s", want.TurnID, got.Anchor, want.Anchor))
		}
	}
	return mismatches
}

// #endregion convert
