// Package freshness decides whether a derived artifact must be rebuilt by
// comparing fingerprints against a sidecar record written next to it.
package freshness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/okian/podium/internal/domain/fingerprint"
	"github.com/okian/podium/pkg/logger"
)

// Record is the pair of fingerprints an artifact was last built from.
type Record struct {
	Source fingerprint.Fingerprint
	Logic  fingerprint.Fingerprint
}

// Reason explains a rebuild decision.
type Reason string

// Decision reasons.
const (
	ReasonFresh            Reason = "fresh"
	ReasonArtifactMissing  Reason = "artifact_missing"
	ReasonRecordMissing    Reason = "record_missing"
	ReasonRecordUnreadable Reason = "record_unreadable"
	ReasonSourceChanged    Reason = "source_changed"
	ReasonLogicChanged     Reason = "logic_changed"
)

// Cache tracks artifact freshness.
type Cache interface {
	// RecordPath returns the sidecar path for artifact.
	RecordPath(artifact string) string

	// ShouldRebuild reports whether artifact must be rebuilt given the
	// fingerprints it would be built from now. Unreadable or malformed records
	// are treated as absent.
	ShouldRebuild(ctx context.Context, artifact, record string, current Record) (bool, Reason)

	// Commit atomically replaces the record with current.
	Commit(ctx context.Context, record string, current Record) error

	// Invalidate removes the record. It is called before the artifact is
	// rewritten so an interrupted write leaves no matching record behind.
	Invalidate(ctx context.Context, record string) error
}

// sidecar is the on-disk YAML shape of a Record.
type sidecar struct {
	Source string `yaml:"source"`
	Logic  string `yaml:"logic"`
}

type fileCache struct {
	suffix string
	mode   fs.FileMode
	log    logger.Logger
}

// NewFileCache creates a Cache backed by YAML sidecar files.
func NewFileCache(opts ...Option) Cache {
	c := &fileCache{
		suffix: ".hash",
		mode:   0o644,
		log:    logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *fileCache) RecordPath(artifact string) string {
	return artifact + c.suffix
}

func (c *fileCache) ShouldRebuild(ctx context.Context, artifact, record string, current Record) (bool, Reason) {
	if _, err := os.Stat(artifact); err != nil {
		return true, ReasonArtifactMissing
	}

	stored, err := c.read(record)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return true, ReasonRecordMissing
	case err != nil:
		c.log.Debug(ctx, "cache record ignored", logger.String("record", record), logger.Error(err))
		return true, ReasonRecordUnreadable
	}

	if stored.Source != current.Source {
		return true, ReasonSourceChanged
	}
	if stored.Logic != current.Logic {
		return true, ReasonLogicChanged
	}
	return false, ReasonFresh
}

func (c *fileCache) read(record string) (Record, error) {
	data, err := os.ReadFile(record)
	if err != nil {
		return Record{}, err
	}
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	src, err := fingerprint.Parse(sc.Source)
	if err != nil {
		return Record{}, fmt.Errorf("%w: source: %w", ErrMalformedRecord, err)
	}
	logic, err := fingerprint.Parse(sc.Logic)
	if err != nil {
		return Record{}, fmt.Errorf("%w: logic: %w", ErrMalformedRecord, err)
	}
	return Record{Source: src, Logic: logic}, nil
}

func (c *fileCache) Commit(ctx context.Context, record string, current Record) error {
	data, err := yaml.Marshal(sidecar{Source: current.Source.String(), Logic: current.Logic.String()})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	if err := os.MkdirAll(filepath.Dir(record), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	if err := renameio.WriteFile(record, data, c.mode, renameio.WithTempDir(filepath.Dir(record))); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	c.log.Debug(ctx, "cache record committed", logger.String("record", record))
	return nil
}

func (c *fileCache) Invalidate(ctx context.Context, record string) error {
	err := os.Remove(record)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrInvalidate, err)
	}
	return nil
}
