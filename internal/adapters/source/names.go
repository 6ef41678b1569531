package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/podium/pkg/logger"
)

// Names resolves driver and constructor ids to display names. It is loaded
// once per run and read-only afterwards.
type Names struct {
	drivers      map[string]string
	constructors map[string]string
}

// Driver returns the display name of a driver, or the id when unknown.
func (n *Names) Driver(id string) string { return lookup(n.drivers, id) }

// Constructor returns the display name of a constructor, or the id when unknown.
func (n *Names) Constructor(id string) string { return lookup(n.constructors, id) }

func lookup(m map[string]string, id string) string {
	if m != nil {
		if name, ok := m[id]; ok {
			return name
		}
	}
	return id
}

// nameRecord accepts the current key and the legacy one.
type nameRecord struct {
	Name     string `yaml:"name"`
	FullName string `yaml:"fullName"`
}

func (r nameRecord) display(id string) string {
	if s := strings.TrimSpace(r.Name); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.FullName); s != "" {
		return s
	}
	return id
}

// ReferenceFiles lists the driver and constructor records in sorted order.
func (r *Reader) ReferenceFiles() ([]string, error) {
	var files []string
	for _, dir := range []string{driversDir, constructorsDir} {
		matches, err := filepath.Glob(filepath.Join(r.root, dir, "*"+recordExt))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// LoadNames reads every driver and constructor record. Unreadable records
// are logged and resolve to their id. Missing directories yield empty maps.
func (r *Reader) LoadNames(ctx context.Context) (*Names, error) {
	drivers, err := r.loadDir(ctx, driversDir)
	if err != nil {
		return nil, err
	}
	constructors, err := r.loadDir(ctx, constructorsDir)
	if err != nil {
		return nil, err
	}
	return &Names{drivers: drivers, constructors: constructors}, nil
}

func (r *Reader) loadDir(ctx context.Context, dir string) (map[string]string, error) {
	out := make(map[string]string)
	entries, err := os.ReadDir(filepath.Join(r.root, dir))
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Warn(ctx, "reference directory missing", logger.String("dir", dir))
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != recordExt {
			continue
		}
		id := strings.TrimSuffix(e.Name(), recordExt)
		path := filepath.Join(r.root, dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			r.log.Warn(ctx, "reference record unreadable", logger.String("path", path), logger.Error(err))
			continue
		}
		var rec nameRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			r.log.Warn(ctx, "reference record malformed", logger.String("path", path), logger.Error(err))
			continue
		}
		out[id] = rec.display(id)
	}
	return out, nil
}
