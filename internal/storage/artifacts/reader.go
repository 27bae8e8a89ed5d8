package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"skardu_hotels/internal/domain"
)

type artifactName struct {
	path  string
	stamp string
	seq   int
}

// parseArtifactName splits processed_hotels_<stamp>[_<seq>]<ext>.
func parseArtifactName(name, ext string) (artifactName, bool) {
	if !strings.HasPrefix(name, processedPrefix) || !strings.HasSuffix(name, ext) {
		return artifactName{}, false
	}
	mid := strings.TrimSuffix(strings.TrimPrefix(name, processedPrefix), ext)
	if len(mid) < len(StampLayout) {
		return artifactName{}, false
	}
	stamp, rest := mid[:len(StampLayout)], mid[len(StampLayout):]
	if _, err := time.Parse(StampLayout, stamp); err != nil {
		return artifactName{}, false
	}
	seq := 0
	if rest != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(rest, "_"))
		if err != nil || !strings.HasPrefix(rest, "_") || n <= 0 {
			return artifactName{}, false
		}
		seq = n
	}
	return artifactName{path: name, stamp: stamp, seq: seq}, true
}

// Latest returns the newest JSON artifact in dir.
func Latest(dir string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var found []artifactName
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if a, ok := parseArtifactName(e.Name(), ".json"); ok {
			found = append(found, a)
		}
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no artifact in %s: %w", dir, domain.ErrNotFound)
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].stamp != found[j].stamp {
			return found[i].stamp < found[j].stamp
		}
		return found[i].seq < found[j].seq
	})
	return filepath.Join(dir, found[len(found)-1].path), nil
}

func LoadHotels(path string) ([]domain.Hotel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hs []domain.Hotel
	if err := json.Unmarshal(b, &hs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return hs, nil
}

// LoadLatest decodes the newest JSON artifact in dir and returns its path.
func LoadLatest(dir string) ([]domain.Hotel, string, error) {
	p, err := Latest(dir)
	if err != nil {
		return nil, "", err
	}
	hs, err := LoadHotels(p)
	return hs, p, err
}
