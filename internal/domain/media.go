package domain

import (
	"strings"
)

// Recognized media host prefixes. Images live on the pbs host and are
// content-addressed by a short identifier; videos live on the amplify and
// ext hosts and have no stable short identifier in the scraped data.
const (
	imageHostPrefix   = "https://pbs.twimg.com/media/"
	amplifyHostPrefix = "https://video.twimg.com/amplify_video/"
	extVideoPrefix    = "https://video.twimg.com/ext_tw_video/"
)

// MediaKind distinguishes the two reference shapes.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaRef is a classified media reference: either a short image
// identifier or a full video URL. Video URLs are opaque locators and are
// never shortened.
type MediaRef struct {
	Kind  MediaKind
	Value string
}

// ClassifyMediaURL classifies a media URL from a raw record.
//
// Image URLs return the path segment between the last "/" and the query
// string, which is the reusable image identifier. Video URLs under either
// recognized host return unchanged. Anything else fails with a
// *MediaRefError wrapping ErrInvalidMediaReference.
func ClassifyMediaURL(rawURL string) (MediaRef, error) {
	switch {
	case strings.HasPrefix(rawURL, imageHostPrefix):
		id := rawURL[strings.LastIndex(rawURL, "/")+1:]
		if q := strings.Index(id, "?"); q >= 0 {
			id = id[:q]
		}
		if id == "" {
			return MediaRef{}, &MediaRefError{URL: rawURL, Err: ErrInvalidMediaReference}
		}
		return MediaRef{Kind: MediaKindImage, Value: id}, nil

	case strings.HasPrefix(rawURL, amplifyHostPrefix), strings.HasPrefix(rawURL, extVideoPrefix):
		return MediaRef{Kind: MediaKindVideo, Value: rawURL}, nil

	default:
		return MediaRef{}, &MediaRefError{URL: rawURL, Err: ErrInvalidMediaReference}
	}
}

// ImageFetchURL returns the canonical URL an image identifier can be
// re-fetched from at original resolution.
func ImageFetchURL(imageID string) string {
	return imageHostPrefix + imageID + "?format=jpg&name=orig"
}
