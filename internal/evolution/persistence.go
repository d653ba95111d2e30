package evolution

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const snapshotVersion = "1.0"

// snapshot is the on-disk shape of the engine state.
type snapshot struct {
	Version         string                    `json:"version"`
	SavedAt         time.Time                 `json:"saved_at"`
	FeedbackLog     []FeedbackRecord          `json:"feedback_log"`
	DocumentStats   map[string]*DocumentStats `json:"document_stats"`
	LearnedPatterns []patternRecord           `json:"learned_patterns"`
	PendingPatterns map[string][]sampleRecord `json:"pending_patterns"`
}

// patternRecord is the serialized pattern form. The in-memory keyword set
// becomes a sorted list here so snapshots diff cleanly.
type patternRecord struct {
	PatternKey    string    `json:"pattern_key"`
	Documents     []string  `json:"documents"`
	Mode          string    `json:"mode"`
	Personas      []string  `json:"personas"`
	Keywords      []string  `json:"keywords"`
	SampleCount   int       `json:"sample_count"`
	SuccessRate   float64   `json:"success_rate"`
	SuccessScores []int     `json:"success_scores"`
	LearnedAt     time.Time `json:"learned_at"`
}

type sampleRecord struct {
	Query    string   `json:"query"`
	Keywords []string `json:"keywords"`
	Score    int      `json:"score"`
	Mode     string   `json:"mode"`
	Personas []string `json:"personas"`
}

func (e *Engine) buildSnapshot() snapshot {
	snap := snapshot{
		Version:         snapshotVersion,
		SavedAt:         e.now(),
		FeedbackLog:     e.feedback,
		DocumentStats:   e.stats,
		PendingPatterns: make(map[string][]sampleRecord, len(e.pending)),
	}
	for _, p := range e.patterns {
		snap.LearnedPatterns = append(snap.LearnedPatterns, patternRecord{
			PatternKey:    p.PatternKey,
			Documents:     p.Documents,
			Mode:          p.Mode,
			Personas:      p.Personas,
			Keywords:      p.Keywords.sorted(),
			SampleCount:   p.SampleCount,
			SuccessRate:   p.SuccessRate,
			SuccessScores: p.SuccessScores,
			LearnedAt:     p.LearnedAt,
		})
	}
	for key, samples := range e.pending {
		records := make([]sampleRecord, 0, len(samples))
		for _, s := range samples {
			records = append(records, sampleRecord{
				Query:    s.Query,
				Keywords: s.Keywords.sorted(),
				Score:    s.Score,
				Mode:     s.Mode,
				Personas: s.Personas,
			})
		}
		snap.PendingPatterns[key] = records
	}
	return snap
}

func (e *Engine) applySnapshot(snap snapshot) {
	e.feedback = snap.FeedbackLog
	e.stats = snap.DocumentStats
	if e.stats == nil {
		e.stats = make(map[string]*DocumentStats)
	}
	for _, stats := range e.stats {
		if stats.Modes == nil {
			stats.Modes = make(map[string]int)
		}
	}
	e.patterns = nil
	for _, r := range snap.LearnedPatterns {
		keywords := make(keywordSet, len(r.Keywords))
		for _, kw := range r.Keywords {
			keywords[kw] = struct{}{}
		}
		e.patterns = append(e.patterns, &LearnedPattern{
			PatternKey:    r.PatternKey,
			Documents:     r.Documents,
			Mode:          r.Mode,
			Personas:      r.Personas,
			Keywords:      keywords,
			SampleCount:   r.SampleCount,
			SuccessRate:   r.SuccessRate,
			SuccessScores: r.SuccessScores,
			LearnedAt:     r.LearnedAt,
		})
	}
	e.pending = make(map[string][]pendingSample, len(snap.PendingPatterns))
	for key, records := range snap.PendingPatterns {
		samples := make([]pendingSample, 0, len(records))
		for _, r := range records {
			keywords := make(keywordSet, len(r.Keywords))
			for _, kw := range r.Keywords {
				keywords[kw] = struct{}{}
			}
			samples = append(samples, pendingSample{
				Query:    r.Query,
				Keywords: keywords,
				Score:    r.Score,
				Mode:     r.Mode,
				Personas: r.Personas,
			})
		}
		e.pending[key] = samples
	}
}

// writeSnapshotFile writes data to path via a temp file in the same
// directory, fsyncing before the rename so a crash never leaves a
// truncated snapshot. An existing snapshot is kept as path+".bak".
func writeSnapshotFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("rotate snapshot backup: %w", err)
		}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("install snapshot: %w", err)
	}
	return nil
}

// Save persists the full engine state as a versioned JSON snapshot.
// Failures are logged, never fatal.
func (e *Engine) Save() bool {
	data, err := json.MarshalIndent(e.buildSnapshot(), "", "  ")
	if err != nil {
		e.logger.Error("snapshot encode failed", zap.Error(err))
		return false
	}
	if err := writeSnapshotFile(e.path, data); err != nil {
		e.logger.Error("snapshot save failed", zap.String("path", e.path), zap.Error(err))
		return false
	}
	e.dirty = false
	e.logger.Debug("snapshot saved", zap.String("path", e.path))
	return true
}

// Load replaces the in-memory state from the snapshot file. A missing or
// unreadable snapshot leaves the current state untouched and returns
// false.
func (e *Engine) Load() bool {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if !os.IsNotExist(err) {
			e.logger.Warn("snapshot read failed", zap.String("path", e.path), zap.Error(err))
		}
		return false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		e.logger.Error("snapshot decode failed", zap.String("path", e.path), zap.Error(err))
		return false
	}
	e.applySnapshot(snap)
	e.dirty = false
	e.logger.Info("snapshot loaded",
		zap.String("path", e.path),
		zap.Int("feedback", len(e.feedback)),
		zap.Int("patterns", len(e.patterns)))
	return true
}

// Backup writes a timestamped copy of the current state next to the main
// snapshot and returns its path.
func (e *Engine) Backup() (string, bool) {
	data, err := json.MarshalIndent(e.buildSnapshot(), "", "  ")
	if err != nil {
		e.logger.Error("backup encode failed", zap.Error(err))
		return "", false
	}
	stamp := e.now().Format("20060102-150405")
	ext := filepath.Ext(e.path)
	backupPath := fmt.Sprintf("%s.backup-%s%s", e.path[:len(e.path)-len(ext)], stamp, ext)
	if err := writeSnapshotFile(backupPath, data); err != nil {
		e.logger.Error("backup save failed", zap.String("path", backupPath), zap.Error(err))
		return "", false
	}
	e.logger.Info("backup written", zap.String("path", backupPath))
	return backupPath, true
}

// RestoreFromBackup replaces the in-memory state from a backup file and
// re-persists it as the main snapshot.
func (e *Engine) RestoreFromBackup(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error("backup read failed", zap.String("path", path), zap.Error(err))
		return false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		e.logger.Error("backup decode failed", zap.String("path", path), zap.Error(err))
		return false
	}
	e.applySnapshot(snap)
	e.dirty = true
	e.logger.Info("state restored from backup", zap.String("path", path))
	return e.Save()
}
