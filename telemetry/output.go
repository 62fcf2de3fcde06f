package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/shimmer/config"
)

// csvSink appends gocsv rows to one file, writing the header with the first row.
type csvSink[T any] struct {
	name   string
	f      *os.File
	header bool
}

func openSink[T any](dir, name string) (*csvSink[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvSink[T]{name: name, f: f}, nil
}

func (s *csvSink[T]) append(row T) error {
	rows := []T{row}
	var err error
	if s.header {
		err = gocsv.MarshalWithoutHeaders(rows, s.f)
	} else {
		err = gocsv.Marshal(rows, s.f)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	s.header = true
	return nil
}

func (s *csvSink[T]) close() error {
	if s == nil {
		return nil
	}
	return s.f.Close()
}

// OutputManager writes a run directory: field.csv, perf.csv and config.yaml.
// A nil *OutputManager discards everything.
type OutputManager struct {
	dir   string
	field *csvSink[WindowStats]
	perf  *csvSink[PerfRow]
}

// NewOutputManager creates dir and its CSV files. It returns nil when dir is
// empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	field, err := openSink[WindowStats](dir, "field.csv")
	if err != nil {
		return nil, err
	}
	perf, err := openSink[PerfRow](dir, "perf.csv")
	if err != nil {
		field.close()
		return nil, err
	}
	return &OutputManager{dir: dir, field: field, perf: perf}, nil
}

// WriteConfig saves cfg next to the CSVs.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteField appends a field window.
func (om *OutputManager) WriteField(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.field.append(stats)
}

// WritePerf appends frame timing for the window ending at windowEnd.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}
	return om.perf.append(stats.Row(windowEnd))
}

// Dir returns the output directory, or "" when disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes both CSV files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.field.close(), om.perf.close())
}
