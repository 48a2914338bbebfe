// Package index persists converted datasets in a SQLite archive index so
// the viewer and TUI can browse them without re-reading the raw records.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/tweetsift/internal/convert"
	"github.com/iconidentify/tweetsift/internal/domain"
)

// Store handles all database operations.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the index database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		records INTEGER NOT NULL,
		rows INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		tweet_id INTEGER PRIMARY KEY,
		created_at DATETIME NOT NULL,
		tweet_text TEXT NOT NULL,
		tweet_url TEXT NOT NULL,
		is_quoted_tweet BOOLEAN NOT NULL,
		is_reply_tweet BOOLEAN NOT NULL,
		has_media BOOLEAN NOT NULL,
		target_tweet_id INTEGER,
		target_tweet_url TEXT
	);

	CREATE TABLE IF NOT EXISTS media_refs (
		tweet_id INTEGER NOT NULL REFERENCES posts(tweet_id),
		kind TEXT NOT NULL,
		ref TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (tweet_id, kind, position)
	);

	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_media_refs_tweet ON media_refs(tweet_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a conversion result: the run row, every post, and the
// media references of media-bearing posts. Posts are upserted so repeated
// runs over the same archive stay idempotent.
func (s *Store) SaveRun(ctx context.Context, res *convert.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, records, rows, skipped, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Records, len(res.Rows), res.Skipped, res.StartedAt, res.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range res.Rows {
		var targetID *int64
		if p.TargetID != nil {
			v := int64(*p.TargetID)
			targetID = &v
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO posts (tweet_id, created_at, tweet_text, tweet_url,
				is_quoted_tweet, is_reply_tweet, has_media, target_tweet_id, target_tweet_url)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(tweet_id) DO UPDATE SET
				created_at=excluded.created_at,
				tweet_text=excluded.tweet_text,
				tweet_url=excluded.tweet_url,
				is_quoted_tweet=excluded.is_quoted_tweet,
				is_reply_tweet=excluded.is_reply_tweet,
				has_media=excluded.has_media,
				target_tweet_id=excluded.target_tweet_id,
				target_tweet_url=excluded.target_tweet_url`,
			int64(p.ID), p.CreatedAt, p.Text, p.URL,
			p.IsQuote, p.IsReply, p.HasMedia, targetID, p.TargetURL)
		if err != nil {
			return fmt.Errorf("insert post %d: %w", p.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM media_refs WHERE tweet_id = ?`, int64(p.ID)); err != nil {
			return fmt.Errorf("clear media refs %d: %w", p.ID, err)
		}
		refs, ok := res.MediaMap[p.ID]
		if !ok {
			continue
		}
		for i, id := range refs.ImageIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO media_refs (tweet_id, kind, ref, position) VALUES (?, ?, ?, ?)`,
				int64(p.ID), string(domain.MediaKindImage), id, i); err != nil {
				return fmt.Errorf("insert image ref: %w", err)
			}
		}
		for i, u := range refs.VideoURLs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO media_refs (tweet_id, kind, ref, position) VALUES (?, ?, ?, ?)`,
				int64(p.ID), string(domain.MediaKindVideo), u, i); err != nil {
				return fmt.Errorf("insert video ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ListPosts returns posts ordered newest first. limit <= 0 means no limit.
func (s *Store) ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tweet_id, created_at, tweet_text, tweet_url,
			is_quoted_tweet, is_reply_tweet, has_media, target_tweet_id, target_tweet_url
		 FROM posts ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a single post by identifier.
func (s *Store) GetPost(ctx context.Context, id domain.PostID) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT tweet_id, created_at, tweet_text, tweet_url,
			is_quoted_tweet, is_reply_tweet, has_media, target_tweet_id, target_tweet_url
		 FROM posts WHERE tweet_id = ?`, int64(id))

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MediaRefs returns the ordered media references of a post. A post with
// no stored references yields empty slices, not nil.
func (s *Store) MediaRefs(ctx context.Context, id domain.PostID) (domain.MediaRefs, error) {
	refs := domain.MediaRefs{ImageIDs: []string{}, VideoURLs: []string{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, ref FROM media_refs WHERE tweet_id = ? ORDER BY kind, position`,
		int64(id))
	if err != nil {
		return refs, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, ref string
		if err := rows.Scan(&kind, &ref); err != nil {
			return refs, err
		}
		switch domain.MediaKind(kind) {
		case domain.MediaKindImage:
			refs.ImageIDs = append(refs.ImageIDs, ref)
		case domain.MediaKindVideo:
			refs.VideoURLs = append(refs.VideoURLs, ref)
		}
	}
	return refs, rows.Err()
}

// Stats summarizes the indexed archive.
type Stats struct {
	Posts      int        `json:"posts"`
	MediaPosts int        `json:"media_posts"`
	Runs       int        `json:"runs"`
	Oldest     *time.Time `json:"oldest,omitempty"`
	Newest     *time.Time `json:"newest,omitempty"`
}

// Stats returns archive-level counts and the post date range.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(has_media), 0) FROM posts`).Scan(&st.Posts, &st.MediaPosts)
	if err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&st.Runs); err != nil {
		return nil, err
	}

	if st.Posts > 0 {
		var oldest, newest time.Time
		err := s.db.QueryRowContext(ctx,
			`SELECT MIN(created_at), MAX(created_at) FROM posts`).Scan(&oldest, &newest)
		if err != nil {
			return nil, err
		}
		st.Oldest = &oldest
		st.Newest = &newest
	}

	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (domain.Post, error) {
	var p domain.Post
	var id int64
	var targetID sql.NullInt64
	var targetURL sql.NullString

	err := row.Scan(&id, &p.CreatedAt, &p.Text, &p.URL,
		&p.IsQuote, &p.IsReply, &p.HasMedia, &targetID, &targetURL)
	if err != nil {
		return domain.Post{}, err
	}

	p.ID = domain.PostID(id)
	if targetID.Valid {
		v := domain.PostID(targetID.Int64)
		p.TargetID = &v
	}
	if targetURL.Valid {
		p.TargetURL = &targetURL.String
	}
	return p, nil
}
