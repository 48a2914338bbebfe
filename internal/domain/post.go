package domain

import (
	"time"
)

// PostID is the numeric identifier of a scraped post. A post is always
// reachable at twitter.com/<user>/status/<id>.
type PostID int64

// CreatedAtLayout is the timestamp format used by the scraper output,
// e.g. "Wed Apr 05 12:30:00 +0000 2023".
const CreatedAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Post is one converted row of the tabular dataset.
type Post struct {
	ID        PostID
	CreatedAt time.Time
	Text      string
	URL       string
	IsQuote   bool
	IsReply   bool
	HasMedia  bool

	// TargetID and TargetURL point at the quoted or replied-to post.
	// Both are nil unless IsQuote or IsReply is set.
	TargetID  *PostID
	TargetURL *string
}

// MediaRefs holds the classified media references of a single post.
// Order follows the media_details sequence of the raw record.
type MediaRefs struct {
	ImageIDs  []string `json:"image_ids"`
	VideoURLs []string `json:"video_urls"`
}

// Empty reports whether the post carried no classifiable media.
func (m MediaRefs) Empty() bool {
	return len(m.ImageIDs) == 0 && len(m.VideoURLs) == 0
}

// RawMediaDetail is one entry of a raw record's media_details sequence.
type RawMediaDetail struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// RawRecord is the consumed subset of a scraped post file. All scalar
// fields are string-typed in the source format, including the booleans
// ("true"/"false") and the null sentinel (the literal string "null").
// Pointer fields distinguish an absent key from an empty value.
type RawRecord struct {
	StatusID       *string           `json:"status_id"`
	CreatedAt      *string           `json:"created_at"`
	TweetText      *string           `json:"tweet_text"`
	FullURL        *string           `json:"full_url"`
	IsQuotedTweet  *string           `json:"is_quoted_tweet"`
	IsReplyTweet   *string           `json:"is_reply_tweet"`
	HasMedia       *string           `json:"has_media"`
	TargetTweetID  *string           `json:"target_tweet_id"`
	TargetTweetURL *string           `json:"target_tweet_url"`
	MediaDetails   *[]RawMediaDetail `json:"media_details"`
}

// RawEnvelope is the top-level shape of a scraped post file. Only the
// sub-object under the "tweet" key is consumed.
type RawEnvelope struct {
	Tweet *RawRecord `json:"tweet"`
}
