// Package artifacts reads and writes the pipeline's on-disk outputs: the
// timestamped JSON/CSV artifact pair of each run and the scraper's raw files.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// StampLayout tags every file written by one run (YYYYMMDD_HHMMSS).
const StampLayout = "20060102_150405"

const maxSeq = 1000

// reserve claims one file per extension under a common stem, adding a _N
// suffix to the stem until every name is free. Claimed files are empty.
func reserve(dir, stem string, exts ...string) ([]string, error) {
	for seq := 0; seq < maxSeq; seq++ {
		s := stem
		if seq > 0 {
			s = fmt.Sprintf("%s_%d", stem, seq)
		}
		names := make([]string, len(exts))
		for i, ext := range exts {
			names[i] = filepath.Join(dir, s+ext)
		}
		ok, err := claimAll(names)
		if err != nil {
			return nil, err
		}
		if ok {
			return names, nil
		}
	}
	return nil, fmt.Errorf("no free artifact name for %s after %d attempts", stem, maxSeq)
}

func claimAll(names []string) (bool, error) {
	for i, n := range names {
		f, err := os.OpenFile(n, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			release(names[:i])
			if errors.Is(err, os.ErrExist) {
				return false, nil
			}
			return false, fmt.Errorf("reserve %s: %w", n, err)
		}
		_ = f.Close()
	}
	return true, nil
}

func release(names []string) {
	for _, n := range names {
		_ = os.Remove(n)
	}
}

// replaceFile writes body to a temp file next to path and renames it over
// path, so readers never see a half-written artifact.
func replaceFile(path string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
