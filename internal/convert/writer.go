package convert

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/iconidentify/tweetsift/internal/domain"
)

// CSVHeader is the column order of the tabular output. tweet_id is the
// row key and always comes first.
var CSVHeader = []string{
	"tweet_id", "created_at", "tweet_text", "tweet_url",
	"is_quoted_tweet", "is_reply_tweet", "target_tweet_id",
	"target_tweet_url", "has_media",
}

// WriteCSV writes the row table. Booleans render as "true"/"false",
// absent targets as empty cells, timestamps as RFC 3339 with the original
// UTC offset preserved.
func WriteCSV(path string, rows []domain.Post) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close()
		return err
	}

	for _, p := range rows {
		targetID := ""
		if p.TargetID != nil {
			targetID = strconv.FormatInt(int64(*p.TargetID), 10)
		}
		targetURL := ""
		if p.TargetURL != nil {
			targetURL = *p.TargetURL
		}

		rec := []string{
			strconv.FormatInt(int64(p.ID), 10),
			p.CreatedAt.Format("2006-01-02T15:04:05-07:00"),
			p.Text,
			p.URL,
			strconv.FormatBool(p.IsQuote),
			strconv.FormatBool(p.IsReply),
			targetID,
			targetURL,
			strconv.FormatBool(p.HasMedia),
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteMediaMap serializes the media mapping as indented JSON keyed by
// the string form of the post identifier.
func WriteMediaMap(path string, mm map[domain.PostID]domain.MediaRefs) error {
	keyed := make(map[string]domain.MediaRefs, len(mm))
	for id, refs := range mm {
		keyed[strconv.FormatInt(int64(id), 10)] = refs
	}

	data, err := json.MarshalIndent(keyed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal media map: %w", err)
	}

	return writeFileSync(path, data, 0o644)
}

// ReadMediaMap loads a media mapping written by WriteMediaMap.
func ReadMediaMap(path string) (map[domain.PostID]domain.MediaRefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var keyed map[string]domain.MediaRefs
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("parse media map: %w", err)
	}

	mm := make(map[domain.PostID]domain.MediaRefs, len(keyed))
	for key, refs := range keyed {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("media map key %q: %w", key, err)
		}
		mm[domain.PostID(id)] = refs
	}
	return mm, nil
}

// writeFileSync writes data and flushes it to disk before returning.
func writeFileSync(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
