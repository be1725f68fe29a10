package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"monoscope/internal/inference"
	"monoscope/internal/model"
)

const driverName = "sqlite"

// Run is one persisted analysis snapshot.
type Run struct {
	RunID               string
	Timestamp           time.Time
	ProjectRoot         string
	ComponentCount      int
	EdgeCount           int
	ClusterCount        int
	ProposalCount       int
	AltaCount           int
	MediaCount          int
	BajaCount           int
	SupportLibraryCount int
	TotalLOC            int
}

// Store keeps analysis runs in a local sqlite database so repeated runs can
// be compared over time.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun snapshots one completed analysis.
func (s *Store) RecordRun(projectRoot string, graph *model.DependencyGraph,
	candidates *inference.Candidates, arch *inference.ConsolidatedArchitecture) error {

	run := Run{
		RunID:               graph.Meta.RunID,
		Timestamp:           time.Now().UTC(),
		ProjectRoot:         projectRoot,
		ComponentCount:      len(graph.Components),
		EdgeCount:           len(graph.Edges),
		ClusterCount:        len(candidates.Clusters),
		ProposalCount:       len(arch.Proposals),
		SupportLibraryCount: len(arch.SupportLibraries),
		TotalLOC:            arch.ProjectMetadata.TotalLOC,
	}
	for _, proposal := range arch.Proposals {
		switch proposal.Viability {
		case inference.ViabilityHigh:
			run.AltaCount++
		case inference.ViabilityMedium:
			run.MediaCount++
		default:
			run.BajaCount++
		}
	}
	return s.Save(run)
}

func (s *Store) Save(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT OR REPLACE INTO analysis_runs (
  run_id, ts_utc, project_root, component_count, edge_count, cluster_count,
  proposal_count, alta_count, media_count, baja_count,
  support_library_count, total_loc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Timestamp.Format(time.RFC3339),
		run.ProjectRoot,
		run.ComponentCount,
		run.EdgeCount,
		run.ClusterCount,
		run.ProposalCount,
		run.AltaCount,
		run.MediaCount,
		run.BajaCount,
		run.SupportLibraryCount,
		run.TotalLOC,
	)
	if err != nil {
		return fmt.Errorf("save analysis run %s: %w", run.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
SELECT run_id, ts_utc, project_root, component_count, edge_count, cluster_count,
       proposal_count, alta_count, media_count, baja_count,
       support_library_count, total_loc
FROM analysis_runs
ORDER BY ts_utc DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analysis runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var run Run
		var ts string
		if err := rows.Scan(&run.RunID, &ts, &run.ProjectRoot,
			&run.ComponentCount, &run.EdgeCount, &run.ClusterCount,
			&run.ProposalCount, &run.AltaCount, &run.MediaCount, &run.BajaCount,
			&run.SupportLibraryCount, &run.TotalLOC); err != nil {
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
			run.Timestamp = parsed
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
