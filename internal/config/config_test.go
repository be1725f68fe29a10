package config

import (
	"os"
	"path/filepath"
	"testing"

	"monoscope/internal/core/errors"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	s := cfg.Inference.Signals
	if s.TableWeight != 0.25 || s.CallWeight != 0.35 || s.TokenWeight != 0.30 || s.EventWeight != 0.10 {
		t.Fatalf("unexpected default signal weights: %+v", s)
	}
	if cfg.Inference.Consolidation.EvidenceThreshold != 0.65 {
		t.Fatalf("evidence threshold = %f", cfg.Inference.Consolidation.EvidenceThreshold)
	}
	if len(cfg.Inference.Naming.ExcludeTokens) == 0 {
		t.Fatal("exclude tokens must default to the closed set")
	}
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monoscope.toml")
	content := `
version = 1

[project]
root = "/some/project"

[inference.consolidation]
evidence_threshold = 0.7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Project.Root != "/some/project" {
		t.Fatalf("root = %q", cfg.Project.Root)
	}
	if cfg.Inference.Consolidation.EvidenceThreshold != 0.7 {
		t.Fatalf("override lost: %f", cfg.Inference.Consolidation.EvidenceThreshold)
	}
	// Untouched values keep their defaults.
	if cfg.Inference.Signals.CallWeight != 0.35 {
		t.Fatalf("default call weight lost: %f", cfg.Inference.Signals.CallWeight)
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := Default()
	cfg.Inference.Signals.TableWeight = 0.5

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for bad weights")
	}
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestValidate_ThresholdsInRange(t *testing.T) {
	cfg := Default()
	cfg.Inference.Consolidation.EvidenceThreshold = 1.5
	if Validate(cfg) == nil {
		t.Fatal("expected validation error for out-of-range threshold")
	}

	cfg = Default()
	cfg.Inference.Viability.MediumViability = 0.9
	if Validate(cfg) == nil {
		t.Fatal("medium cutoff above high cutoff must fail")
	}
}
