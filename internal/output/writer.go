package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"monoscope/internal/core/errors"
	"monoscope/internal/inference"
	"monoscope/internal/model"
)

// Artifacts groups everything one analysis run emits.
type Artifacts struct {
	Graph        *model.DependencyGraph
	Candidates   *inference.Candidates
	Architecture *inference.ConsolidatedArchitecture
}

// Writer persists the three JSON artifacts next to the configured graph
// file: <name>.json, <name>_architecture.json, <name>_entrypoints.json.
type Writer struct {
	graphPath string
}

func NewWriter(graphPath string) *Writer {
	return &Writer{graphPath: graphPath}
}

func (w *Writer) ArchitecturePath() string {
	return derivePath(w.graphPath, "_architecture")
}

func (w *Writer) EntrypointsPath() string {
	return derivePath(w.graphPath, "_entrypoints")
}

// WriteAll writes every artifact, creating parent directories as needed.
func (w *Writer) WriteAll(artifacts Artifacts) error {
	if err := w.writeJSON(w.graphPath, artifacts.Graph); err != nil {
		return err
	}
	if err := w.writeJSON(w.ArchitecturePath(), artifacts.Architecture); err != nil {
		return err
	}
	return w.writeJSON(w.EntrypointsPath(), artifacts.Graph.APIContracts)
}

func (w *Writer) writeJSON(path string, value any) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.CodeIO, "create output directory")
		}
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "marshal artifact")
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "write artifact"), errors.CtxPath, path)
	}
	return nil
}

func derivePath(graphPath, suffix string) string {
	ext := filepath.Ext(graphPath)
	if ext == "" {
		return graphPath + suffix + ".json"
	}
	return strings.TrimSuffix(graphPath, ext) + suffix + ext
}
