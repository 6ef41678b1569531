package metrics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// WriteTextfile writes the global registry to path in the Prometheus text
// exposition format, suitable for the node exporter textfile collector.
// The file is replaced atomically.
func WriteTextfile(path string) error {
	return WriteGathererTextfile(customRegistry, path)
}

// WriteGathererTextfile writes the families of g to path.
func WriteGathererTextfile(g prometheus.Gatherer, path string) error {
	if g == nil {
		return ErrNoGatherer
	}
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGather, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	pf, err := renameio.NewPendingFile(path, renameio.WithTempDir(dir), renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	defer func() { _ = pf.Cleanup() }()

	bw := bufio.NewWriter(pf)
	if err := writeFamilies(bw, families); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	return nil
}

func writeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
