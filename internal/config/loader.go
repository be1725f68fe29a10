package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultExcludeTokens is the closed set of generic tokens that never become
// part of a generated service name.
var DefaultExcludeTokens = []string{
	"entity", "model", "data", "dto", "event", "command", "query", "impl",
	"repository", "service", "controller", "api", "rest", "http", "adapter",
	"port", "localevents", "rabbit", "jpa", "repo", "dao", "operations",
	"listener", "publisher", "handler", "factory", "db", "usecase",
	"primaryports", "secondaryports",
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a config with every tunable at its compiled-in default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func ApplyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Project.Root) == "" {
		cfg.Project.Root = "."
	}
	if len(cfg.Project.SourceDirs) == 0 {
		cfg.Project.SourceDirs = []string{"src/main/java", "src", "."}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{"**/target/**", "**/build/**", "**/.git/**", "**/node_modules/**"}
	}
	if strings.TrimSpace(cfg.Output.GraphFile) == "" {
		cfg.Output.GraphFile = "output.json"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RateLimit == 0 {
		cfg.Watch.RateLimit = 6
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/monoscope.db"
	}
	if strings.TrimSpace(cfg.Metrics.Address) == "" {
		cfg.Metrics.Address = "127.0.0.1:9193"
	}

	applyInferenceDefaults(&cfg.Inference)
}

func applyInferenceDefaults(inf *Inference) {
	s := &inf.Signals
	if s.TableWeight == 0 && s.CallWeight == 0 && s.TokenWeight == 0 && s.EventWeight == 0 {
		s.TableWeight = 0.25
		s.CallWeight = 0.35
		s.TokenWeight = 0.30
		s.EventWeight = 0.10
	}
	if s.NoiseFloor == 0 {
		s.NoiseFloor = 0.1
	}

	c := &inf.Consolidation
	if c.EvidenceThreshold == 0 {
		c.EvidenceThreshold = 0.65
	}
	if c.MinStrongSignals == 0 {
		c.MinStrongSignals = 2
	}
	if c.StrongTableJaccard == 0 {
		c.StrongTableJaccard = 0.4
	}
	if c.StrongCallDensity == 0 {
		c.StrongCallDensity = 0.35
	}
	if c.StrongTokenSimilarity == 0 {
		c.StrongTokenSimilarity = 0.6
	}
	if c.MaxSizeWithoutHighSimilarity == 0 {
		c.MaxSizeWithoutHighSimilarity = 40
	}
	if c.HighTokenSimilarity == 0 {
		c.HighTokenSimilarity = 0.75
	}
	if c.SupportRatio == 0 {
		c.SupportRatio = 0.8
	}
	if c.SignificantInfraRatio == 0 {
		c.SignificantInfraRatio = 0.3
	}
	if c.SameDomainMaxSize == 0 {
		c.SameDomainMaxSize = 50
	}
	if c.StrongCohesion == 0 {
		c.StrongCohesion = 0.7
	}
	if c.StrongCouplingMax == 0 {
		c.StrongCouplingMax = 0.3
	}
	if c.StrongMinSize == 0 {
		c.StrongMinSize = 3
	}

	v := &inf.Viability
	if v.CohesionWeight == 0 && v.CouplingWeight == 0 && v.DataWeight == 0 {
		v.CohesionWeight = 0.5
		v.CouplingWeight = 0.35
		v.DataWeight = 0.15
	}
	if v.HighViability == 0 {
		v.HighViability = 0.7
	}
	if v.MediumViability == 0 {
		v.MediumViability = 0.5
	}
	if v.SmallSizePenalty == 0 {
		v.SmallSizePenalty = 0.6
	}
	if v.LargeSizePenalty == 0 {
		v.LargeSizePenalty = 0.7
	}
	if v.LargeSizeDensityMax == 0 {
		v.LargeSizeDensityMax = 0.5
	}
	if v.NanoMaxSize == 0 {
		v.NanoMaxSize = 2
	}

	if len(inf.Naming.ExcludeTokens) == 0 {
		inf.Naming.ExcludeTokens = append([]string(nil), DefaultExcludeTokens...)
	}
}
