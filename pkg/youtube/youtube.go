// Package youtube implements the music.Searcher interface using the
// YouTube Data API. Only the endpoints required by the application are
// supported: video search restricted to the music category and the video
// details lookup used to learn a track's duration.
//
// Network calls are performed using the provided http.Client allowing
// callers to substitute a test client.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/filyy5040/yeti-radio-streams/pkg/music"
)

const (
	// DefaultBaseURL is the root of the YouTube Data API v3.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	// DefaultMaxResults caps the number of items returned by one search.
	DefaultMaxResults = 20
	// MusicCategoryID is the video category used to restrict searches.
	MusicCategoryID = "10"
)

// Client provides access to the YouTube Data API. The zero value is ready
// for use; BaseURL, MaxResults and CategoryID fall back to the defaults
// above and HTTP to a client with a 10 second timeout.
type Client struct {
	BaseURL    string
	MaxResults int
	CategoryID string
	HTTP       *http.Client
}

// ensure Client implements the music.Searcher interface.
var _ music.Searcher = (*Client)(nil)

// defaultHTTP serves clients that leave HTTP unset. Client values are
// shared by concurrent searches, so the fallback is never stored on them.
var defaultHTTP = &http.Client{Timeout: 10 * time.Second}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return defaultHTTP
	}
	return c.HTTP
}

func (c *Client) endpoint(path string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + path
}

// searchResponse mirrors the subset of the search.list payload we care
// about.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Description  string `json:"description"`
			Thumbnails   struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search queries the YouTube search API for music videos and converts the
// results into music.Item values in response order. Only the first page is
// returned. An empty result set is returned without error.
func (c *Client) Search(ctx context.Context, q, key string) (music.List, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, music.ErrEmptyQuery
	}
	max := c.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}
	category := c.CategoryID
	if category == "" {
		category = MusicCategoryID
	}
	params := url.Values{
		"part":            {"snippet"},
		"type":            {"video"},
		"videoCategoryId": {category},
		"maxResults":      {strconv.Itoa(max)},
		"q":               {q},
		"key":             {key},
	}
	var body searchResponse
	if err := c.get(ctx, "/search", params, &body); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	items := make(music.List, 0, len(body.Items))
	for _, it := range body.Items {
		thumb := it.Snippet.Thumbnails.Medium.URL
		if thumb == "" {
			thumb = it.Snippet.Thumbnails.Default.URL
		}
		items = append(items, music.Item{
			ExternalID:   it.ID.VideoID,
			Title:        it.Snippet.Title,
			Author:       it.Snippet.ChannelTitle,
			ThumbnailURL: thumb,
			Description:  it.Snippet.Description,
		})
	}
	return items, nil
}

// VideoDuration returns the length of the video in seconds using the
// videos.list endpoint.
func (c *Client) VideoDuration(ctx context.Context, videoID, key string) (float64, error) {
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {videoID},
		"key":  {key},
	}
	var body struct {
		Items []struct {
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/videos", params, &body); err != nil {
		return 0, fmt.Errorf("youtube video details: %w", err)
	}
	if len(body.Items) == 0 {
		return 0, fmt.Errorf("youtube video details: video %q not found", videoID)
	}
	d, err := ParseDuration(body.Items[0].ContentDetails.Duration)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path)+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// StatusError is returned when the API answers with a non-2xx status.
// 400 and 403 usually mean the API key is invalid or over quota.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}
