// Package music defines the data structures shared by the search and
// playback layers. Item is the provider-neutral view of a single search
// result; Searcher is implemented by catalog clients such as the YouTube
// Data API client. By depending on this package the rest of the
// application can remain agnostic about the underlying platform.
package music

import (
	"context"
	"errors"
)

// ErrEmptyQuery is returned when a search is attempted with a query that is
// empty after trimming whitespace. No outbound call is made in that case.
var ErrEmptyQuery = errors.New("empty query")

// Item represents one media entry returned by a catalog search. Values are
// immutable once constructed from a response payload.
type Item struct {
	// ExternalID is the opaque identifier of the media in the remote
	// catalog. The playback widget is bound using this value.
	ExternalID   string `json:"external_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ThumbnailURL string `json:"thumbnail_url"`
	Description  string `json:"description"`
}

// List is an ordered sequence of items produced by one completed search.
type List []Item

// Find returns the item with the given external ID.
func (l List) Find(id string) (Item, bool) {
	for _, it := range l {
		if it.ExternalID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Searcher exposes catalog search. Implementations issue a single outbound
// request per call and never retry.
type Searcher interface {
	// Search returns items matching query in response order. credential is
	// the opaque key authorizing the call. An empty result is not an error.
	Search(ctx context.Context, query, credential string) (List, error)
}
