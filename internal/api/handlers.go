package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/tweetsift/internal/domain"
	"github.com/iconidentify/tweetsift/internal/index"
)

var startTime = time.Now()

// Handler serves the read-only dataset browsing API backed by the
// archive index.
type Handler struct {
	store  *index.Store
	logger *slog.Logger
}

// NewHandler creates a new dataset API handler.
func NewHandler(store *index.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// postResponse is the JSON shape of a single post.
type postResponse struct {
	TweetID        int64   `json:"tweet_id"`
	CreatedAt      string  `json:"created_at"`
	TweetText      string  `json:"tweet_text"`
	TweetURL       string  `json:"tweet_url"`
	IsQuotedTweet  bool    `json:"is_quoted_tweet"`
	IsReplyTweet   bool    `json:"is_reply_tweet"`
	HasMedia       bool    `json:"has_media"`
	TargetTweetID  *int64  `json:"target_tweet_id,omitempty"`
	TargetTweetURL *string `json:"target_tweet_url,omitempty"`
}

func toPostResponse(p domain.Post) postResponse {
	resp := postResponse{
		TweetID:        int64(p.ID),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		TweetText:      p.Text,
		TweetURL:       p.URL,
		IsQuotedTweet:  p.IsQuote,
		IsReplyTweet:   p.IsReply,
		HasMedia:       p.HasMedia,
		TargetTweetURL: p.TargetURL,
	}
	if p.TargetID != nil {
		v := int64(*p.TargetID)
		resp.TargetTweetID = &v
	}
	return resp
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "stats query failed")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// ListPosts handles GET /api/v1/posts?limit=&offset=.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	posts, err := h.store.ListPosts(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list posts failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "list query failed")
		return
	}

	resp := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, toPostResponse(p))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"posts":  resp,
		"count":  len(resp),
		"offset": offset,
	})
}

// GetPost handles GET /api/v1/posts/{tweetID}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	post, err := h.store.GetPost(r.Context(), id)
	if errors.Is(err, domain.ErrPostNotFound) {
		h.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		h.logger.Error("get post failed", "tweet_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "post query failed")
		return
	}
	h.writeJSON(w, http.StatusOK, toPostResponse(*post))
}

// GetMedia handles GET /api/v1/posts/{tweetID}/media. Image ids are
// returned with their canonical fetch URLs; video URLs pass through
// unchanged.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	if _, err := h.store.GetPost(r.Context(), id); errors.Is(err, domain.ErrPostNotFound) {
		h.writeError(w, http.StatusNotFound, "post not found")
		return
	}

	refs, err := h.store.MediaRefs(r.Context(), id)
	if err != nil {
		h.logger.Error("media refs failed", "tweet_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "media query failed")
		return
	}

	fetchURLs := make([]string, 0, len(refs.ImageIDs))
	for _, imageID := range refs.ImageIDs {
		fetchURLs = append(fetchURLs, domain.ImageFetchURL(imageID))
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"tweet_id":   int64(id),
		"image_ids":  refs.ImageIDs,
		"image_urls": fetchURLs,
		"video_urls": refs.VideoURLs,
	})
}

func (h *Handler) postID(w http.ResponseWriter, r *http.Request) (domain.PostID, bool) {
	raw := chi.URLParam(r, "tweetID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid tweet id")
		return 0, false
	}
	return domain.PostID(id), true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
