// Package config builds the one explicit configuration struct the process
// constructs at startup. Pure engine functions never read the environment;
// everything tunable flows in from here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iroslabs/iros-engine/internal/gate"
	"github.com/iroslabs/iros-engine/internal/mirror"
	"github.com/iroslabs/iros-engine/internal/northstar"
	"github.com/iroslabs/iros-engine/internal/transition"
)

// #region duration

// Duration is a time.Duration that accepts "30m" style YAML scalars.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// #endregion duration

// #region config

// Config is the full process configuration.
type Config struct {
	DBPath string `yaml:"db_path"`

	Completion struct {
		Host    string   `yaml:"host"`
		Model   string   `yaml:"model"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"completion"`

	Policy struct {
		ForbidRtoCJump                  bool `yaml:"forbid_r_to_c_jump"`
		TGateRequiresBehavioralEvidence bool `yaml:"t_gate_requires_behavioral_evidence"`
		RequireAnchorSetForCommit       bool `yaml:"require_anchor_set_for_commit"`
	} `yaml:"policy"`

	NorthStar struct {
		EvidenceThreshold float64 `yaml:"evidence_threshold"`
		MaxEvidence       int     `yaml:"max_evidence"`
	} `yaml:"north_star"`

	Gate struct {
		HoldWindow    Duration `yaml:"hold_window"`
		LookbackTurns int      `yaml:"lookback_turns"`
		MaxAckLen     int      `yaml:"max_ack_len"`
	} `yaml:"gate"`

	Mirror struct {
		MeaningKeyMinConfidence float64 `yaml:"meaning_key_min_confidence"`
		MicroMaxRunes           int     `yaml:"micro_max_runes"`
	} `yaml:"mirror"`
}

// #endregion config

// #region defaults

// Default returns the production configuration.
func Default() Config {
	var cfg Config
	cfg.DBPath = "iros_engine.db"
	cfg.Completion.Host = "http://localhost:11434"
	cfg.Completion.Model = "llama3.1"
	cfg.Completion.Timeout = Duration(30 * time.Second)

	pol := transition.DefaultPolicy()
	cfg.Policy.ForbidRtoCJump = pol.ForbidRtoCJump
	cfg.Policy.TGateRequiresBehavioralEvidence = pol.TGateRequiresBehavioralEvidence
	cfg.Policy.RequireAnchorSetForCommit = pol.RequireAnchorSetForCommit

	ns := northstar.DefaultConfig()
	cfg.NorthStar.EvidenceThreshold = ns.EvidenceThreshold
	cfg.NorthStar.MaxEvidence = ns.MaxEvidence

	g := gate.DefaultConfig()
	cfg.Gate.HoldWindow = Duration(g.HoldWindow)
	cfg.Gate.LookbackTurns = g.LookbackTurns
	cfg.Gate.MaxAckLen = g.MaxAckLen

	m := mirror.DefaultConfig()
	cfg.Mirror.MeaningKeyMinConfidence = m.MeaningKeyMinConfidence
	cfg.Mirror.MicroMaxRunes = m.MicroMaxRunes

	return cfg
}

// #endregion defaults

// #region load

// Load builds the config: defaults, then an optional YAML file, then
// environment overrides. Called once at startup.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays the small set of deploy-time overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("IROS_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("IROS_COMPLETION_HOST"); v != "" {
		cfg.Completion.Host = v
	}
	if v := os.Getenv("IROS_COMPLETION_MODEL"); v != "" {
		cfg.Completion.Model = v
	}
	if v := os.Getenv("IROS_ANCHOR_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.NorthStar.EvidenceThreshold = f
		}
	}
	if v := os.Getenv("IROS_GATE_HOLD_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Gate.HoldWindow = Duration(d)
		}
	}
}

// #endregion load

// #region accessors

// PolicyConfig converts the loaded toggles into the engine's Policy.
func (c Config) PolicyConfig() transition.Policy {
	return transition.Policy{
		ForbidRtoCJump:                  c.Policy.ForbidRtoCJump,
		TGateRequiresBehavioralEvidence: c.Policy.TGateRequiresBehavioralEvidence,
		RequireAnchorSetForCommit:       c.Policy.RequireAnchorSetForCommit,
	}
}

// NorthStarConfig converts the loaded constants into the tracker config.
func (c Config) NorthStarConfig() northstar.Config {
	return northstar.Config{
		EvidenceThreshold: c.NorthStar.EvidenceThreshold,
		MaxEvidence:       c.NorthStar.MaxEvidence,
	}
}

// GateConfig converts the loaded constants into the gate config.
func (c Config) GateConfig() gate.Config {
	return gate.Config{
		HoldWindow:    c.Gate.HoldWindow.Std(),
		LookbackTurns: c.Gate.LookbackTurns,
		MaxAckLen:     c.Gate.MaxAckLen,
	}
}

// MirrorConfig converts the loaded constants into the estimator config.
func (c Config) MirrorConfig() mirror.Config {
	return mirror.Config{
		MeaningKeyMinConfidence: c.Mirror.MeaningKeyMinConfidence,
		MicroMaxRunes:           c.Mirror.MicroMaxRunes,
	}
}

// #endregion accessors
