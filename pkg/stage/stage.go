// Package stage implements the screen router sitting between the HTTP
// handlers and the search and playback layers.
//
// The controller moves between three stages, credential entry, landing and
// player, only through explicit user actions. It owns the search credential,
// the displayed result list and the selected item, and it queues user-facing
// notifications for the presentation layer to drain.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/filyy5040/yeti-radio-streams/pkg/metrics"
	"github.com/filyy5040/yeti-radio-streams/pkg/music"
)

// Stage identifies the screen currently shown.
type Stage string

const (
	CredentialEntry Stage = "credential"
	Landing         Stage = "landing"
	Player          Stage = "player"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed from
	// the current stage.
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrEmptyCredential   = errors.New("empty credential")
	// ErrNoCredential is returned by Search before a credential is stored.
	ErrNoCredential      = errors.New("no credential configured")
	ErrUnknownItem       = errors.New("unknown item")
)

// CredentialStore persists the search credential.
type CredentialStore interface {
	Credential(ctx context.Context) (string, error)
	SaveCredential(ctx context.Context, credential string) error
}

// Playback is the part of the playback bridge the controller drives.
type Playback interface {
	Bind(item music.Item)
	Release()
}

// Notification is a transient message for the user.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive"`
}

// Config holds the controller settings.
type Config struct {
	// ReleaseOnHome releases the bound widget when going home. When false
	// the selected item keeps playing in the background.
	ReleaseOnHome bool
	Logger        logrus.FieldLogger
	Metrics       *metrics.Metrics
}

// Controller is the stage state machine. All methods are safe for
// concurrent use.
type Controller struct {
	store         CredentialStore
	searcher      music.Searcher
	playback      Playback
	results       *music.Results
	releaseOnHome bool
	log           logrus.FieldLogger
	metrics       *metrics.Metrics

	mu         sync.Mutex
	stage      Stage
	credential string
	selected   music.Item
	hasItem    bool
	notices    []Notification
}

// New returns a controller starting in Landing when a credential is already
// persisted and in CredentialEntry otherwise.
func New(ctx context.Context, store CredentialStore, s music.Searcher, p Playback, cfg Config) (*Controller, error) {
	cred, err := store.Credential(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	c := &Controller{
		store:         store,
		searcher:      s,
		playback:      p,
		results:       &music.Results{},
		releaseOnHome: cfg.ReleaseOnHome,
		log:           cfg.Logger,
		metrics:       cfg.Metrics,
		stage:         CredentialEntry,
		credential:    cred,
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.metrics == nil {
		c.metrics = metrics.New(nil)
	}
	if cred != "" {
		c.stage = Landing
	}
	return c, nil
}

// Stage returns the current stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Credential returns the credential used for searches.
func (c *Controller) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

// SubmitCredential persists key and, from CredentialEntry, moves to
// Landing. Surrounding whitespace is removed first.
func (c *Controller) SubmitCredential(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyCredential
	}
	if err := c.store.SaveCredential(ctx, key); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = key
	if c.stage == CredentialEntry {
		c.stage = Landing
	}
	c.notifyLocked(Notification{
		Title:       "API key configured",
		Description: "You can start listening to your favourite music now.",
	})
	c.log.WithField("stage", c.stage).Info("credential saved")
	return nil
}

// StartListening moves from Landing to Player.
func (c *Controller) StartListening() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != Landing {
		return fmt.Errorf("%w: start listening from %s", ErrInvalidTransition, c.stage)
	}
	c.stage = Player
	return nil
}

// GoHome moves from Player to Landing. The bound widget is released unless
// the controller was configured to keep playing in the background.
func (c *Controller) GoHome() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != Player {
		return fmt.Errorf("%w: go home from %s", ErrInvalidTransition, c.stage)
	}
	c.stage = Landing
	if c.releaseOnHome {
		c.playback.Release()
		c.selected = music.Item{}
		c.hasItem = false
	}
	return nil
}

// Search runs query against the catalog. A blank query returns
// music.ErrEmptyQuery and a missing credential ErrNoCredential, both
// without a remote call. On failure the displayed list is left untouched and
// a destructive notification is queued. A response older than the displayed
// one is returned but not displayed.
func (c *Controller) Search(ctx context.Context, query string) (music.List, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, music.ErrEmptyQuery
	}
	cred := c.Credential()
	if cred == "" {
		return nil, ErrNoCredential
	}
	seq := c.results.Begin()
	defer c.results.Finish()

	items, err := c.searcher.Search(ctx, query, cred)
	if err != nil {
		c.metrics.Searches.WithLabelValues(metrics.SearchError).Inc()
		c.log.WithFields(logrus.Fields{"query": query, "seq": seq}).WithError(err).Warn("search failed")
		c.notify(Notification{
			Title:       "Search failed",
			Description: "An error occurred while searching. Check your API key.",
			Destructive: true,
		})
		return nil, err
	}
	if !c.results.Apply(seq, items) {
		c.metrics.Searches.WithLabelValues(metrics.SearchStale).Inc()
		c.log.WithFields(logrus.Fields{"query": query, "seq": seq}).Debug("discarded stale search response")
		return items, nil
	}
	if len(items) == 0 {
		c.metrics.Searches.WithLabelValues(metrics.SearchEmpty).Inc()
		c.notify(Notification{
			Title:       "No results",
			Description: "No tracks matched your search. Try different terms.",
		})
		return items, nil
	}
	c.metrics.Searches.WithLabelValues(metrics.SearchOK).Inc()
	c.log.WithFields(logrus.Fields{"query": query, "results": len(items)}).Debug("search complete")
	return items, nil
}

// Results returns the displayed result list.
func (c *Controller) Results() music.List {
	return c.results.Items()
}

// Searching reports whether a search is in flight.
func (c *Controller) Searching() bool {
	return c.results.Searching()
}

// Select binds the displayed item with the given external ID to the
// playback bridge. It is only allowed in the Player stage and does not
// change the stage.
func (c *Controller) Select(externalID string) (music.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != Player {
		return music.Item{}, fmt.Errorf("%w: select from %s", ErrInvalidTransition, c.stage)
	}
	item, ok := c.results.Items().Find(externalID)
	if !ok {
		return music.Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, externalID)
	}
	c.playback.Bind(item)
	c.selected = item
	c.hasItem = true
	c.notifyLocked(Notification{
		Title:       "Playback started",
		Description: "Now playing: " + item.Title,
	})
	return item, nil
}

// Selected returns the selected item. ok is false when none is selected.
func (c *Controller) Selected() (item music.Item, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.hasItem
}

// Drain returns the queued notifications and clears the queue.
func (c *Controller) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.notices
	c.notices = nil
	return n
}

func (c *Controller) notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyLocked(n)
}

func (c *Controller) notifyLocked(n Notification) {
	c.notices = append(c.notices, n)
}
