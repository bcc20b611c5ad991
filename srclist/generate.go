package srclist

import (
	"fmt"
	"os"
	"path/filepath"
)

// Outputs describes the files written by Generate.
type Outputs struct {
	CalPath     string
	SimPath     string
	Calibrators int
	Sources     int
	// Degenerate maps source names to channels written as nan.
	Degenerate map[string][]int
}

// FileNames returns the calibration and simulation list names for an
// observation and config stem.
func FileNames(obsID, stem string) (cal, sim string) {
	prefix := obsID + "_" + stem
	return prefix + "_cal.txt", prefix + "_sim.txt"
}

// Generate writes the calibration and simulation sourcelists of cfg into
// outDir, creating it if needed. Existing lists are overwritten. stem is
// usually the config file name without extension.
func Generate(cfg *Config, stem, outDir string) (*Outputs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	all, err := Entries(cfg, false)
	if err != nil {
		return nil, err
	}
	var cal []Entry
	for _, e := range all {
		if cfg.Sources[e.Name].IsCalibrator() {
			cal = append(cal, e)
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("srclist: create %s: %w", outDir, err)
	}

	calName, simName := FileNames(cfg.ObsID, stem)
	out := &Outputs{
		CalPath:     filepath.Join(outDir, calName),
		SimPath:     filepath.Join(outDir, simName),
		Calibrators: len(cal),
		Sources:     len(all),
	}
	for _, e := range all {
		if len(e.Degenerate) > 0 {
			if out.Degenerate == nil {
				out.Degenerate = make(map[string][]int)
			}
			out.Degenerate[e.Name] = e.Degenerate
		}
	}

	if err := writeFile(out.CalPath, cal); err != nil {
		return nil, err
	}
	if err := writeFile(out.SimPath, all); err != nil {
		return nil, err
	}
	return out, nil
}

// StemOf returns the config file name without directory and extension.
func StemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func writeFile(path string, entries []Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("srclist: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("srclist: close %s: %w", path, cerr)
		}
	}()
	if err := Write(f, entries); err != nil {
		return fmt.Errorf("srclist: write %s: %w", path, err)
	}
	return nil
}
