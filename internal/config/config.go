package config

import "time"

type Config struct {
	Version   int       `toml:"version"`
	Project   Project   `toml:"project"`
	Exclude   Exclude   `toml:"exclude"`
	Output    Output    `toml:"output"`
	Watch     Watch     `toml:"watch"`
	History   History   `toml:"history"`
	Metrics   Metrics   `toml:"metrics"`
	Inference Inference `toml:"inference"`
}

type Project struct {
	Root       string   `toml:"root"`
	SourceDirs []string `toml:"source_dirs"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Output struct {
	GraphFile string `toml:"graph_file"`
	Mermaid   string `toml:"mermaid"`
	Summary   bool   `toml:"summary"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	// Analyses per minute in watch mode; bursts of churn are smoothed out.
	RateLimit float64 `toml:"rate_limit"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// Inference carries every tunable of the decomposition pipeline. Each field
// has a compiled-in default so a config file only overrides what it names.
type Inference struct {
	Signals       Signals       `toml:"signals"`
	Consolidation Consolidation `toml:"consolidation"`
	Viability     Viability     `toml:"viability"`
	Naming        Naming        `toml:"naming"`
}

// Signals are the inter-cluster evidence weights. They must sum to 1.
type Signals struct {
	TableWeight float64 `toml:"table_weight"`
	CallWeight  float64 `toml:"call_weight"`
	TokenWeight float64 `toml:"token_weight"`
	EventWeight float64 `toml:"event_weight"`
	NoiseFloor  float64 `toml:"noise_floor"`
}

type Consolidation struct {
	EvidenceThreshold            float64 `toml:"evidence_threshold"`
	MinStrongSignals             int     `toml:"min_strong_signals"`
	StrongTableJaccard           float64 `toml:"strong_table_jaccard"`
	StrongCallDensity            float64 `toml:"strong_call_density"`
	StrongTokenSimilarity        float64 `toml:"strong_token_similarity"`
	MaxSizeWithoutHighSimilarity int     `toml:"max_size_without_high_similarity"`
	HighTokenSimilarity          float64 `toml:"high_token_similarity"`
	SupportRatio                 float64 `toml:"support_ratio"`
	SignificantInfraRatio        float64 `toml:"significant_infra_ratio"`
	SameDomainMaxSize            int     `toml:"same_domain_max_size"`
	StrongCohesion               float64 `toml:"strong_cohesion"`
	StrongCouplingMax            float64 `toml:"strong_coupling_max"`
	StrongMinSize                int     `toml:"strong_min_size"`
}

type Viability struct {
	CohesionWeight  float64 `toml:"cohesion_weight"`
	CouplingWeight  float64 `toml:"coupling_weight"`
	DataWeight      float64 `toml:"data_weight"`
	HighViability   float64 `toml:"high_viability"`
	MediumViability float64 `toml:"medium_viability"`
	// Multipliers applied to the base score when the size bands trip.
	SmallSizePenalty    float64 `toml:"small_size_penalty"`
	LargeSizePenalty    float64 `toml:"large_size_penalty"`
	LargeSizeDensityMax float64 `toml:"large_size_density_max"`
	NanoMaxSize         int     `toml:"nano_max_size"`
}

type Naming struct {
	ExcludeTokens []string `toml:"exclude_tokens"`
}
