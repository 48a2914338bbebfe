package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/tweetsift/internal/domain"
)

// DefaultMaxSkips is the circuit-breaker threshold: a run aborts once more
// than this many records have been skipped for missing fields.
const DefaultMaxSkips = 10

// Options configures a single conversion run.
type Options struct {
	RecordsDir   string // directory of raw per-post JSON files
	CSVPath      string // tabular output
	MediaMapPath string // media mapping output, empty to skip
	MaxSkips     int    // 0 means DefaultMaxSkips
}

// Result is the outcome of a conversion run.
type Result struct {
	RunID      string
	Rows       []domain.Post
	MediaMap   map[domain.PostID]domain.MediaRefs
	Records    int // record files seen
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Converter turns a directory of scraped post records into the tabular
// dataset and the media-reference mapping. Single pass, synchronous; the
// accumulators live only for the duration of one run.
type Converter struct {
	logger *slog.Logger
}

// New creates a new converter.
func New(logger *slog.Logger) *Converter {
	return &Converter{logger: logger}
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// fields required for every record. Quoted and reply records additionally
// require the target fields, media-bearing records the media_details key.
var requiredFields = []string{
	"status_id", "created_at", "tweet_text", "full_url",
	"is_quoted_tweet", "is_reply_tweet", "has_media",
}

// Run processes every record file in opts.RecordsDir and writes the
// configured outputs.
//
// Error policy is two-tier: a record with missing required fields is
// logged, counted and skipped, and the run aborts with ErrTooManyErrors
// once the skip count exceeds the threshold. An un-parseable record file
// or an unrecognized media URL aborts the run immediately, since either
// means the structural assumptions about the input are wrong.
func (c *Converter) Run(ctx context.Context, opts Options) (*Result, error) {
	maxSkips := opts.MaxSkips
	if maxSkips <= 0 {
		maxSkips = DefaultMaxSkips
	}

	entries, err := os.ReadDir(opts.RecordsDir)
	if err != nil {
		return nil, fmt.Errorf("read records dir: %w", err)
	}

	res := &Result{
		RunID:     "run_" + uuid.New().String()[:8],
		MediaMap:  make(map[domain.PostID]domain.MediaRefs),
		StartedAt: time.Now(),
	}

	c.logger.Info("conversion started",
		"run_id", res.RunID,
		"records_dir", opts.RecordsDir,
		"entries", len(entries),
	)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		res.Records++

		path := filepath.Join(opts.RecordsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", entry.Name(), err)
		}

		var env domain.RawEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("parse record %s: %w", entry.Name(), err)
		}

		post, details, err := normalizeRecord(entry.Name(), env.Tweet)
		if err != nil {
			recErr, ok := err.(*domain.RecordError)
			if !ok {
				return nil, err
			}
			res.Skipped++
			c.logger.Warn("skipping record",
				"file", recErr.File,
				"post_id", recErr.PostID,
				"missing", strings.Join(recErr.Missing, ","),
				"skipped", res.Skipped,
			)
			if res.Skipped > maxSkips {
				c.logger.Error("skip threshold exceeded, aborting run",
					"run_id", res.RunID,
					"skipped", res.Skipped,
					"threshold", maxSkips,
				)
				return nil, fmt.Errorf("aborted after %d skipped records: %w", res.Skipped, domain.ErrTooManyErrors)
			}
			continue
		}

		if post.HasMedia {
			refs := domain.MediaRefs{ImageIDs: []string{}, VideoURLs: []string{}}
			for _, d := range details {
				ref, err := domain.ClassifyMediaURL(d.URL)
				if err != nil {
					return nil, fmt.Errorf("record %s: %w", entry.Name(), err)
				}
				switch ref.Kind {
				case domain.MediaKindImage:
					refs.ImageIDs = append(refs.ImageIDs, ref.Value)
				case domain.MediaKindVideo:
					refs.VideoURLs = append(refs.VideoURLs, ref.Value)
				}
			}
			res.MediaMap[post.ID] = refs
		}

		res.Rows = append(res.Rows, post)
	}

	if opts.CSVPath != "" {
		if err := ensureOutputSpace(opts.CSVPath, len(res.Rows)); err != nil {
			return nil, err
		}
		if err := WriteCSV(opts.CSVPath, res.Rows); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	if opts.MediaMapPath != "" {
		if err := WriteMediaMap(opts.MediaMapPath, res.MediaMap); err != nil {
			return nil, fmt.Errorf("write media map: %w", err)
		}
	}

	res.FinishedAt = time.Now()
	c.logger.Info("conversion complete",
		"run_id", res.RunID,
		"rows", len(res.Rows),
		"skipped", res.Skipped,
		"media_posts", len(res.MediaMap),
		"duration", res.FinishedAt.Sub(res.StartedAt),
	)

	return res, nil
}

// normalizeRecord coerces one raw record into a typed row. All
// string-to-native conversions happen here so no string-typed booleans or
// null sentinels leak past this boundary.
func normalizeRecord(file string, raw *domain.RawRecord) (domain.Post, []domain.RawMediaDetail, error) {
	if raw == nil {
		return domain.Post{}, nil, &domain.RecordError{File: file, Missing: []string{"tweet"}}
	}

	recErr := &domain.RecordError{File: file}
	if raw.StatusID != nil {
		recErr.PostID = *raw.StatusID
	}

	present := map[string]*string{
		"status_id":       raw.StatusID,
		"created_at":      raw.CreatedAt,
		"tweet_text":      raw.TweetText,
		"full_url":        raw.FullURL,
		"is_quoted_tweet": raw.IsQuotedTweet,
		"is_reply_tweet":  raw.IsReplyTweet,
		"has_media":       raw.HasMedia,
	}
	for _, f := range requiredFields {
		if present[f] == nil {
			recErr.Missing = append(recErr.Missing, f)
		}
	}
	if len(recErr.Missing) > 0 {
		return domain.Post{}, nil, recErr
	}

	isQuote := *raw.IsQuotedTweet == "true"
	isReply := *raw.IsReplyTweet == "true"
	hasMedia := *raw.HasMedia == "true"

	if isQuote || isReply {
		if raw.TargetTweetID == nil {
			recErr.Missing = append(recErr.Missing, "target_tweet_id")
		}
		if raw.TargetTweetURL == nil {
			recErr.Missing = append(recErr.Missing, "target_tweet_url")
		}
	}
	if hasMedia && raw.MediaDetails == nil {
		recErr.Missing = append(recErr.Missing, "media_details")
	}
	if len(recErr.Missing) > 0 {
		return domain.Post{}, nil, recErr
	}

	id, err := strconv.ParseInt(*raw.StatusID, 10, 64)
	if err != nil {
		return domain.Post{}, nil, fmt.Errorf("record %s: status_id %q: %w", file, *raw.StatusID, err)
	}
	createdAt, err := time.Parse(domain.CreatedAtLayout, *raw.CreatedAt)
	if err != nil {
		return domain.Post{}, nil, fmt.Errorf("record %s: created_at %q: %w", file, *raw.CreatedAt, err)
	}

	post := domain.Post{
		ID:        domain.PostID(id),
		CreatedAt: createdAt,
		Text:      newlines.Replace(*raw.TweetText),
		URL:       *raw.FullURL,
		IsQuote:   isQuote,
		IsReply:   isReply,
		HasMedia:  hasMedia,
	}

	// The literal string "null" normalizes to an absent target.
	if (isQuote || isReply) && *raw.TargetTweetID != "null" {
		tid, err := strconv.ParseInt(*raw.TargetTweetID, 10, 64)
		if err != nil {
			return domain.Post{}, nil, fmt.Errorf("record %s: target_tweet_id %q: %w", file, *raw.TargetTweetID, err)
		}
		targetID := domain.PostID(tid)
		post.TargetID = &targetID
	}
	if (isQuote || isReply) && *raw.TargetTweetURL != "null" {
		targetURL := *raw.TargetTweetURL
		post.TargetURL = &targetURL
	}

	var details []domain.RawMediaDetail
	if hasMedia {
		details = *raw.MediaDetails
	}

	return post, details, nil
}

// ensureOutputSpace is a cheap preflight: refuse to start writing when the
// destination volume clearly cannot hold the table. A zero free-space
// reading means the platform probe failed and the check is skipped.
func ensureOutputSpace(path string, rows int) error {
	dir := filepath.Dir(path)
	free := freeDiskSpace(dir)
	if free == 0 {
		return nil
	}
	// ~512 bytes per row is generous for this schema.
	need := int64(rows)*512 + 1<<20
	if free < need {
		return fmt.Errorf("insufficient space on %s: need %d bytes, have %d", dir, need, free)
	}
	return nil
}
