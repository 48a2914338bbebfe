package validate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iconidentify/tweetsift/internal/convert"
	"github.com/iconidentify/tweetsift/internal/domain"
)

// MediaReport summarizes a missing-media check.
type MediaReport struct {
	Referenced int      // image ids referenced by the media mapping
	Present    int      // referenced ids with a local file
	Missing    []string // referenced ids with no local file, sorted
}

// MissingMedia compares the image identifiers referenced by a media
// mapping against the files of a local media directory. Filenames are
// compared by stem, extension-agnostic, so IMG123.jpg satisfies a
// reference to IMG123. When urlListPath is non-empty, a newline-delimited
// list of canonical fetch URLs for the missing ids is written there.
func MissingMedia(logger *slog.Logger, mapPath, mediaDir, urlListPath string) (*MediaReport, error) {
	mm, err := convert.ReadMediaMap(mapPath)
	if err != nil {
		return nil, fmt.Errorf("read media map: %w", err)
	}

	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("read media dir: %w", err)
	}

	stems := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stems[strings.TrimSuffix(name, filepath.Ext(name))] = struct{}{}
	}

	report := &MediaReport{}
	seen := make(map[string]struct{})
	for _, refs := range mm {
		for _, id := range refs.ImageIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			report.Referenced++
			if _, ok := stems[id]; ok {
				report.Present++
			} else {
				report.Missing = append(report.Missing, id)
			}
		}
	}
	sort.Strings(report.Missing)

	logger.Info("media check complete",
		"referenced", report.Referenced,
		"present", report.Present,
		"missing", len(report.Missing),
	)

	if urlListPath != "" && len(report.Missing) > 0 {
		var b strings.Builder
		for _, id := range report.Missing {
			b.WriteString(domain.ImageFetchURL(id))
			b.WriteByte('\n')
		}
		if err := os.WriteFile(urlListPath, []byte(b.String()), 0o644); err != nil {
			return nil, fmt.Errorf("write url list: %w", err)
		}
	}

	return report, nil
}
