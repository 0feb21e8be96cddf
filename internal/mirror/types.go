package mirror

import "github.com/iroslabs/iros-engine/internal/depth"

// #region energy

// Energy is the 5-level discrete emotional-energy classification for one
// turn. EnergyUnknown is reserved for micro turns, which are deliberately
// left unclassified.
type Energy string

const (
	EnergyUnknown  Energy = ""
	EnergySurging  Energy = "surging"  // excitement, drive, momentum
	EnergyRising   Energy = "rising"   // hopeful, warming up
	EnergySteady   Energy = "steady"   // calm, settled
	EnergyWavering Energy = "wavering" // uncertain, hesitant (the default)
	EnergySinking  Energy = "sinking"  // heavy, discouraged
)

// #endregion energy

// #region polarity

// Polarity is the coarse affect direction of the turn.
type Polarity string

const (
	PolarityUnknown  Polarity = ""
	PolarityPositive Polarity = "pos"
	PolarityNeutral  Polarity = "neu"
	PolarityNegative Polarity = "neg"
)

// #endregion polarity

// #region field

// Field is the rendering annotation derived from the estimate.
type Field struct {
	ColorKey string
	Alpha    float64
	Size     float64
}

// #endregion field

// #region meta

// Meta is the turn-local affect annotation. It is never merged into the
// persisted identity state: one noisy turn must not corrupt long-term
// tracking.
type Meta struct {
	ETurn      Energy
	Polarity   Polarity
	Confidence float64
	Micro      bool
	MeaningKey string // "" unless stage, band, energy, polarity all known
	Field      Field
}

// #endregion meta

// #region config

// MeaningKeyMinConfidence is the floor below which no compound meaning key
// may be fabricated from partial data.
const MeaningKeyMinConfidence = 0.55

// Config holds the estimator's tunable constants.
type Config struct {
	MeaningKeyMinConfidence float64
	MicroMaxRunes           int
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		MeaningKeyMinConfidence: MeaningKeyMinConfidence,
		MicroMaxRunes:           10,
	}
}

// #endregion config

// #region input

// Input carries the turn text plus the already-resolved stage so the
// estimator can build the compound meaning key without consulting state.
type Input struct {
	Text  string
	Stage depth.Stage
}

// #endregion input
