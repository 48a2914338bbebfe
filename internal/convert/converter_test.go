package convert

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/iconidentify/tweetsift/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseRecord(id string) map[string]any {
	return map[string]any{
		"status_id":       id,
		"created_at":      "Wed Apr 05 12:30:00 +0000 2023",
		"tweet_text":      "service change on the red line",
		"full_url":        "https://twitter.com/MBTA/status/" + id,
		"is_quoted_tweet": "false",
		"is_reply_tweet":  "false",
		"has_media":       "false",
	}
}

func writeRecord(t *testing.T, dir, name string, fields map[string]any) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"tweet": fields})
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}
}

func runConverter(t *testing.T, dir string, opts Options) (*Result, error) {
	t.Helper()
	if opts.RecordsDir == "" {
		opts.RecordsDir = dir
	}
	if opts.CSVPath == "" {
		opts.CSVPath = filepath.Join(t.TempDir(), "tweets.csv")
	}
	return New(testLogger()).Run(context.Background(), opts)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return recs
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()

	// Plain tweet.
	writeRecord(t, dir, "100.json", baseRecord("100"))

	// Reply with one image.
	reply := baseRecord("200")
	reply["is_reply_tweet"] = "true"
	reply["target_tweet_id"] = "99"
	reply["target_tweet_url"] = "https://twitter.com/MBTA/status/99"
	reply["has_media"] = "true"
	reply["media_details"] = []map[string]string{
		{"type": "image", "url": "https://pbs.twimg.com/media/AbCdEf123?format=jpg&name=orig"},
	}
	writeRecord(t, dir, "200.json", reply)

	// Quote with two videos.
	quote := baseRecord("300")
	quote["is_quoted_tweet"] = "true"
	quote["target_tweet_id"] = "null"
	quote["target_tweet_url"] = "null"
	quote["has_media"] = "true"
	quote["media_details"] = []map[string]string{
		{"type": "video", "url": "https://video.twimg.com/amplify_video/1/vid/720x720/x.mp4"},
		{"type": "video", "url": "https://video.twimg.com/ext_tw_video/2/pu/vid/480x480/y.mp4"},
	}
	writeRecord(t, dir, "300.json", quote)

	csvPath := filepath.Join(t.TempDir(), "tweets.csv")
	mapPath := filepath.Join(t.TempDir(), "media.json")
	res, err := runConverter(t, dir, Options{CSVPath: csvPath, MediaMapPath: mapPath})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	if res.Skipped != 0 {
		t.Errorf("expected 0 skips, got %d", res.Skipped)
	}
	if len(res.MediaMap) != 2 {
		t.Fatalf("expected 2 media mapping keys, got %d", len(res.MediaMap))
	}
	if refs := res.MediaMap[200]; len(refs.ImageIDs) != 1 || refs.ImageIDs[0] != "AbCdEf123" {
		t.Errorf("post 200 image ids = %v, want [AbCdEf123]", refs.ImageIDs)
	}
	if refs := res.MediaMap[300]; len(refs.VideoURLs) != 2 {
		t.Errorf("post 300 video urls = %v, want 2 entries", refs.VideoURLs)
	}
	if _, ok := res.MediaMap[100]; ok {
		t.Error("post without media must not appear in the media mapping")
	}

	recs := readCSV(t, csvPath)
	if len(recs) != 4 {
		t.Fatalf("expected header + 3 rows, got %d records", len(recs))
	}
	if recs[0][0] != "tweet_id" || recs[0][8] != "has_media" {
		t.Errorf("unexpected header: %v", recs[0])
	}
	for _, rec := range recs[1:] {
		switch rec[0] {
		case "100":
			if rec[6] != "" || rec[7] != "" {
				t.Errorf("plain tweet should have empty targets, got %q %q", rec[6], rec[7])
			}
			if rec[4] != "false" || rec[5] != "false" || rec[8] != "false" {
				t.Errorf("plain tweet booleans wrong: %v", rec)
			}
		case "200":
			if rec[6] != "99" {
				t.Errorf("reply target_tweet_id = %q, want 99", rec[6])
			}
			if rec[5] != "true" {
				t.Errorf("reply is_reply_tweet = %q, want true", rec[5])
			}
		case "300":
			// "null" targets normalize to empty cells, not "null" or 0.
			if rec[6] != "" || rec[7] != "" {
				t.Errorf("null targets should render empty, got %q %q", rec[6], rec[7])
			}
		default:
			t.Errorf("unexpected row key %q", rec[0])
		}
		if rec[1] != "2023-04-05T12:30:00+00:00" {
			t.Errorf("created_at = %q, want offset-preserving timestamp", rec[1])
		}
	}

	mm, err := ReadMediaMap(mapPath)
	if err != nil {
		t.Fatalf("ReadMediaMap: %v", err)
	}
	if len(mm) != 2 {
		t.Fatalf("media map file has %d keys, want 2", len(mm))
	}
	if got := mm[300]; len(got.ImageIDs) != 0 || len(got.VideoURLs) != 2 {
		t.Errorf("post 300 round-trip = %+v", got)
	}
}

func TestRun_TargetPointers(t *testing.T) {
	dir := t.TempDir()

	quote := baseRecord("300")
	quote["is_quoted_tweet"] = "true"
	quote["target_tweet_id"] = "null"
	quote["target_tweet_url"] = "null"
	writeRecord(t, dir, "300.json", quote)

	res, err := runConverter(t, dir, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	row := res.Rows[0]
	if row.TargetID != nil {
		t.Errorf("target id should be nil for literal null, got %v", *row.TargetID)
	}
	if row.TargetURL != nil {
		t.Errorf("target url should be nil for literal null, got %v", *row.TargetURL)
	}
}

func TestRun_SkipsRecordMissingField(t *testing.T) {
	dir := t.TempDir()

	bad := baseRecord("100")
	delete(bad, "tweet_text")
	writeRecord(t, dir, "100.json", bad)
	writeRecord(t, dir, "200.json", baseRecord("200"))

	res, err := runConverter(t, dir, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if len(res.Rows) != 1 || res.Rows[0].ID != 200 {
		t.Errorf("rows = %v, want only post 200", res.Rows)
	}
}

func TestRun_MissingTargetFieldsSkips(t *testing.T) {
	dir := t.TempDir()

	bad := baseRecord("100")
	bad["is_reply_tweet"] = "true"
	// target_tweet_id / target_tweet_url absent
	writeRecord(t, dir, "100.json", bad)

	res, err := runConverter(t, dir, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Skipped != 1 || len(res.Rows) != 0 {
		t.Errorf("skipped = %d rows = %d, want 1 and 0", res.Skipped, len(res.Rows))
	}
}

func TestRun_CircuitBreaker(t *testing.T) {
	dir := t.TempDir()

	// 12 broken records sort before 5 good ones; the run must stop at the
	// 11th skip without touching the good records.
	for i := 0; i < 12; i++ {
		bad := baseRecord(fmt.Sprintf("%d", 1000+i))
		delete(bad, "created_at")
		writeRecord(t, dir, fmt.Sprintf("a%02d.json", i), bad)
	}
	for i := 0; i < 5; i++ {
		writeRecord(t, dir, fmt.Sprintf("z%02d.json", i), baseRecord(fmt.Sprintf("%d", 2000+i)))
	}

	_, err := runConverter(t, dir, Options{})
	if !errors.Is(err, domain.ErrTooManyErrors) {
		t.Fatalf("expected ErrTooManyErrors, got %v", err)
	}
}

func TestRun_ExactlyThresholdSkipsSucceeds(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 10; i++ {
		bad := baseRecord(fmt.Sprintf("%d", 1000+i))
		delete(bad, "full_url")
		writeRecord(t, dir, fmt.Sprintf("a%02d.json", i), bad)
	}
	writeRecord(t, dir, "z.json", baseRecord("2000"))

	res, err := runConverter(t, dir, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Skipped != 10 || len(res.Rows) != 1 {
		t.Errorf("skipped = %d rows = %d, want 10 and 1", res.Skipped, len(res.Rows))
	}
}

func TestRun_MalformedBlobIsFatal(t *testing.T) {
	dir := t.TempDir()

	writeRecord(t, dir, "100.json", baseRecord("100"))
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runConverter(t, dir, Options{})
	if err == nil {
		t.Fatal("expected error for malformed record blob")
	}
	if errors.Is(err, domain.ErrTooManyErrors) {
		t.Errorf("parse failure must not be counted as a skip: %v", err)
	}
}

func TestRun_UnrecognizedMediaURLIsFatal(t *testing.T) {
	dir := t.TempDir()

	rec := baseRecord("100")
	rec["has_media"] = "true"
	rec["media_details"] = []map[string]string{
		{"type": "image", "url": "https://example.com/cat.jpg"},
	}
	writeRecord(t, dir, "100.json", rec)

	_, err := runConverter(t, dir, Options{})
	if !errors.Is(err, domain.ErrInvalidMediaReference) {
		t.Fatalf("expected ErrInvalidMediaReference, got %v", err)
	}
}

func TestRun_NewlinesCollapsed(t *testing.T) {
	dir := t.TempDir()

	rec := baseRecord("100")
	rec["tweet_text"] = "line one\nline two\r\nline three"
	writeRecord(t, dir, "100.json", rec)

	res, err := runConverter(t, dir, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := res.Rows[0].Text; got != "line one line two line three" {
		t.Errorf("text = %q, newlines should collapse to spaces", got)
	}
}

func TestRun_EmptyMediaDetails(t *testing.T) {
	dir := t.TempDir()

	rec := baseRecord("100")
	rec["has_media"] = "true"
	rec["media_details"] = []map[string]string{}
	writeRecord(t, dir, "100.json", rec)

	res, err := runConverter(t, dir, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	refs, ok := res.MediaMap[100]
	if !ok {
		t.Fatal("media-bearing post must appear in the mapping")
	}
	if len(refs.ImageIDs) != 0 || len(refs.VideoURLs) != 0 {
		t.Errorf("expected empty reference lists, got %+v", refs)
	}
}

func TestRun_IgnoresNonJSONEntries(t *testing.T) {
	dir := t.TempDir()

	writeRecord(t, dir, "100.json", baseRecord("100"))
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := runConverter(t, dir, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Records != 1 || len(res.Rows) != 1 {
		t.Errorf("records = %d rows = %d, want 1 and 1", res.Records, len(res.Rows))
	}
}
