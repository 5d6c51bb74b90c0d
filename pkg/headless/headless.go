// Package headless provides a player.Factory whose widgets simulate an
// embeddable player without any browser. Transport position is derived from
// the wall clock, the track length comes from a lookup function (normally
// the YouTube videos endpoint) and readiness, state changes and the end of
// the track are reported through the widget hooks from a background
// goroutine, the same way an embedded player reports them asynchronously.
package headless

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/filyy5040/yeti-radio-streams/pkg/player"
)

var (
	// ErrNotReady is returned by widget methods called before readiness.
	ErrNotReady = errors.New("widget not ready")
	// ErrDestroyed is returned by widget methods called after Destroy.
	ErrDestroyed = errors.New("widget destroyed")
)

// DurationFunc returns the length in seconds of the media identified by
// externalID. Zero means unknown or live.
type DurationFunc func(ctx context.Context, externalID string) (float64, error)

// Factory creates headless widgets. The zero value creates widgets with an
// unknown duration.
type Factory struct {
	Lookup DurationFunc
	// LookupTimeout bounds the duration lookup. Defaults to 10 seconds.
	LookupTimeout time.Duration
	// Tick is how often a playing widget checks for the end of the track.
	// Defaults to 250ms.
	Tick   time.Duration
	Logger logrus.FieldLogger
}

var _ player.Factory = (*Factory)(nil)

// Create starts a widget for externalID. Readiness is reported through
// hooks.OnReady once the duration lookup completes.
func (f *Factory) Create(externalID string, opts player.Options, hooks player.Hooks) (player.Widget, error) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		id:     externalID,
		opts:   opts,
		hooks:  hooks,
		cancel: cancel,
		events: make(chan player.WidgetState, 8),
		volume: 100,
		now:    time.Now,
	}
	tick := f.Tick
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	log := f.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	go w.run(ctx, f.lookup, tick, log.WithField("item", externalID))
	return w, nil
}

func (f *Factory) lookup(ctx context.Context, id string) (float64, error) {
	if f.Lookup == nil {
		return 0, nil
	}
	timeout := f.LookupTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return f.Lookup(ctx, id)
}

// Widget is a simulated embeddable player instance.
type Widget struct {
	id     string
	opts   player.Options
	hooks  player.Hooks
	cancel context.CancelFunc
	events chan player.WidgetState
	now    func() time.Time

	mu        sync.Mutex
	ready     bool
	destroyed bool
	duration  float64
	base      float64
	anchor    time.Time
	playing   bool
	volume    int
	muted     bool
}

var _ player.Widget = (*Widget)(nil)

func (w *Widget) run(ctx context.Context, lookup DurationFunc, tick time.Duration, log logrus.FieldLogger) {
	d, err := lookup(ctx, w.id)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("duration lookup failed")
		d = 0
	}

	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.duration = d
	w.ready = true
	if w.opts.Autoplay {
		w.startLocked()
	}
	w.mu.Unlock()

	if w.hooks.OnReady != nil {
		w.hooks.OnReady()
	}

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-w.events:
			if w.hooks.OnStateChange != nil {
				w.hooks.OnStateChange(s)
			}
		case <-t.C:
			w.checkEnded()
		}
	}
}

func (w *Widget) checkEnded() {
	w.mu.Lock()
	if !w.playing || w.duration <= 0 || w.positionLocked() < w.duration {
		w.mu.Unlock()
		return
	}
	w.playing = false
	w.base = 0
	w.mu.Unlock()
	if w.hooks.OnStateChange != nil {
		w.hooks.OnStateChange(player.WidgetEnded)
	}
}

// emitLocked queues a state change for delivery from the run goroutine.
// Changes are dropped when the queue is full; the next poll corrects them.
func (w *Widget) emitLocked(s player.WidgetState) {
	select {
	case w.events <- s:
	default:
	}
}

func (w *Widget) usableLocked() error {
	if w.destroyed {
		return ErrDestroyed
	}
	if !w.ready {
		return ErrNotReady
	}
	return nil
}

func (w *Widget) positionLocked() float64 {
	pos := w.base
	if w.playing {
		pos += w.now().Sub(w.anchor).Seconds()
	}
	if w.duration > 0 && pos > w.duration {
		pos = w.duration
	}
	return pos
}

func (w *Widget) startLocked() {
	if w.playing {
		return
	}
	w.anchor = w.now()
	w.playing = true
	w.emitLocked(player.WidgetPlaying)
}

func (w *Widget) Play() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	w.startLocked()
	return nil
}

func (w *Widget) Pause() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	if w.playing {
		w.base = w.positionLocked()
		w.playing = false
		w.emitLocked(player.WidgetPaused)
	}
	return nil
}

func (w *Widget) SeekTo(seconds float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	if seconds < 0 {
		seconds = 0
	}
	if w.duration > 0 && seconds > w.duration {
		seconds = w.duration
	}
	w.base = seconds
	w.anchor = w.now()
	return nil
}

func (w *Widget) CurrentTime() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return 0, err
	}
	return w.positionLocked(), nil
}

func (w *Widget) Duration() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return 0, err
	}
	return w.duration, nil
}

func (w *Widget) SetVolume(percent int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	w.volume = percent
	return nil
}

func (w *Widget) Volume() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return 0, err
	}
	return w.volume, nil
}

func (w *Widget) Mute() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	w.muted = true
	return nil
}

func (w *Widget) Unmute() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	w.muted = false
	return nil
}

func (w *Widget) IsMuted() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return false, err
	}
	return w.muted, nil
}

// Destroy stops the widget. It does not wait for the background goroutine;
// hooks already in flight may still fire and must be tolerated by the
// caller.
func (w *Widget) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.destroyed = true
	w.playing = false
	w.cancel()
	return nil
}
