package cube

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// FrequencyListName is the file written next to the cubes.
const FrequencyListName = "frequency.txt"

// WriteFrequencyList writes one frequency in Hz per line with one decimal
// place. An existing file is left untouched and reported with written=false;
// its content is not compared.
func WriteFrequencyList(path string, freqsHz []float64) (written bool, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cube: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("cube: close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, v := range freqsHz {
		if _, err := fmt.Fprintf(w, "%.1f\n", v); err != nil {
			return false, fmt.Errorf("cube: write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return false, fmt.Errorf("cube: write %s: %w", path, err)
	}
	return true, nil
}

// ReadFrequencyList reads a file written by WriteFrequencyList. Blank lines
// are skipped.
func ReadFrequencyList(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cube: open %s: %w", path, err)
	}
	defer f.Close()

	var out []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("cube: %s:%d: %w", path, line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cube: read %s: %w", path, err)
	}
	return out, nil
}
