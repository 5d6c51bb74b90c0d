// Package player adapts a third-party embeddable media widget into a
// PlaybackState snapshot and an imperative command surface.
//
// A Bridge owns at most one widget instance at a time. Binding an item
// destroys the previous instance before the next one is created. Commands
// are forwarded to the widget and applied optimistically to the local
// state; while the detail view is visible a poll loop periodically reads the
// widget's authoritative values and overwrites the local state with them.
//
// Widget failures never reach callers. Errors and panics raised by the
// widget are logged and counted, and the state keeps its last good values.
// Callbacks arriving from a released instance are discarded.
package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/filyy5040/yeti-radio-streams/pkg/metrics"
	"github.com/filyy5040/yeti-radio-streams/pkg/music"
)

// DefaultPollInterval is the reconciliation period used when Config leaves
// PollInterval unset.
const DefaultPollInterval = time.Second

// DefaultVolume is the desired volume used when Config leaves Volume unset.
const DefaultVolume = 100

// DefaultOptions are the widget display options: autoplay, native controls
// hidden and inline playback.
var DefaultOptions = Options{Autoplay: true, HideControls: true, PlaysInline: true}

// Config holds the Bridge settings. The zero value is usable.
type Config struct {
	PollInterval time.Duration
	// Volume is the initial desired volume applied to every new widget
	// once it is ready. Zero selects DefaultVolume.
	Volume  int
	Options *Options
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// Bridge mirrors a widget's transport state and forwards user commands to
// it. All methods are safe for concurrent use.
type Bridge struct {
	factory  Factory
	opts     Options
	interval time.Duration
	log      logrus.FieldLogger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	widget  Widget
	token   uuid.UUID
	item    music.Item
	state   PlaybackState
	volume  int
	detail  bool
	stopped chan struct{}
}

// NewBridge returns a Bridge creating widgets through f.
func NewBridge(f Factory, cfg Config) *Bridge {
	b := &Bridge{
		factory:  f,
		opts:     DefaultOptions,
		interval: cfg.PollInterval,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		volume:   clampVolume(cfg.Volume),
	}
	if cfg.Options != nil {
		b.opts = *cfg.Options
	}
	if cfg.Volume == 0 {
		b.volume = DefaultVolume
	}
	if b.interval <= 0 {
		b.interval = DefaultPollInterval
	}
	if b.log == nil {
		b.log = logrus.StandardLogger()
	}
	if b.metrics == nil {
		b.metrics = metrics.New(nil)
	}
	b.state = resetState(b.volume)
	return b
}

// Bind releases the current widget, if any, and creates a new one targeted
// at item. The state is reset until the new widget reports readiness.
func (b *Bridge) Bind(item music.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseLocked()

	tok := uuid.New()
	b.token = tok
	b.item = item
	hooks := Hooks{
		OnReady:       func() { b.onReady(tok) },
		OnStateChange: func(s WidgetState) { b.onStateChange(tok, s) },
	}
	var w Widget
	ok := b.call("create", func() (err error) {
		w, err = b.factory.Create(item.ExternalID, b.opts, hooks)
		return err
	})
	if !ok || w == nil {
		return
	}
	b.widget = w
	b.metrics.WidgetBinds.Inc()
	b.log.WithFields(logrus.Fields{"item": item.ExternalID, "widget": tok.String()}).Debug("widget bound")
}

// Release stops polling, destroys the bound widget and resets the state.
// Callbacks fired by the released widget afterwards have no effect.
func (b *Bridge) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
}

func (b *Bridge) releaseLocked() {
	b.stopPollingLocked()
	if b.widget != nil {
		b.call("destroy", b.widget.Destroy)
		b.log.WithFields(logrus.Fields{"item": b.item.ExternalID, "widget": b.token.String()}).Debug("widget released")
	}
	b.widget = nil
	b.token = uuid.Nil
	b.item = music.Item{}
	b.state = resetState(b.volume)
}

// State returns a snapshot of the mirrored playback state.
func (b *Bridge) State() PlaybackState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Item returns the bound item. ok is false when nothing is bound.
func (b *Bridge) Item() (item music.Item, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.item, b.widget != nil
}

// TogglePlayPause pauses a playing widget and plays a paused one. It does
// nothing until the widget is ready.
func (b *Bridge) TogglePlayPause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.readyLocked() {
		return
	}
	if b.state.Playing {
		if b.call("pause", b.widget.Pause) {
			b.state.Playing = false
		}
		return
	}
	if b.call("play", b.widget.Play) {
		b.state.Playing = true
	}
}

// Seek moves playback to seconds. Callers are responsible for keeping the
// target within the track.
func (b *Bridge) Seek(seconds float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.readyLocked() {
		return
	}
	b.seekLocked(seconds)
}

func (b *Bridge) seekLocked(seconds float64) {
	if b.call("seek", func() error { return b.widget.SeekTo(seconds) }) {
		b.state.Position = seconds
	}
}

// Skip moves playback by delta seconds, clamped to the track bounds.
func (b *Bridge) Skip(delta float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.readyLocked() {
		return
	}
	target := b.state.Position + delta
	if b.state.Duration > 0 && target > b.state.Duration {
		target = b.state.Duration
	}
	if target < 0 {
		target = 0
	}
	b.seekLocked(target)
}

// SetVolume sets the volume to percent, clamped to [0,100]. Zero marks the
// state muted; a positive volume while muted unmutes. The value is
// remembered and applied to widgets bound later.
func (b *Bridge) SetVolume(percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	percent = clampVolume(percent)
	b.volume = percent
	if b.readyLocked() {
		if !b.call("set_volume", func() error { return b.widget.SetVolume(percent) }) {
			return
		}
		if percent > 0 && b.state.Muted {
			b.call("unmute", b.widget.Unmute)
		}
	}
	b.state.Volume = percent
	if percent == 0 {
		b.state.Muted = true
	} else if b.state.Muted {
		b.state.Muted = false
	}
}

// ToggleMute mutes or unmutes the widget. After unmuting, the volume is
// read back from the widget rather than taken from the cached state.
func (b *Bridge) ToggleMute() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.readyLocked() {
		return
	}
	if !b.state.Muted {
		if b.call("mute", b.widget.Mute) {
			b.state.Muted = true
		}
		return
	}
	if !b.call("unmute", b.widget.Unmute) {
		return
	}
	b.state.Muted = false
	var v int
	if b.call("volume", func() (err error) { v, err = b.widget.Volume(); return err }) {
		b.state.Volume = v
		b.volume = v
	}
}

// SetDetailVisible reports whether the view showing detailed transport
// controls is visible. Polling only runs while it is.
func (b *Bridge) SetDetailVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detail = visible
	if visible {
		b.startPollingLocked()
	} else {
		b.stopPollingLocked()
	}
}

// Polling reports whether the reconciliation loop is running.
func (b *Bridge) Polling() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped != nil
}

// Poll performs one reconciliation read immediately, overwriting the local
// state with the widget's current position, duration, volume and mute flag.
func (b *Bridge) Poll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pollLocked()
}

func (b *Bridge) pollLocked() {
	if !b.readyLocked() {
		return
	}
	b.metrics.PollTicks.Inc()
	w := b.widget
	var (
		pos, dur float64
		vol      int
		muted    bool
	)
	if b.call("current_time", func() (err error) { pos, err = w.CurrentTime(); return err }) {
		b.state.Position = pos
	}
	if b.call("duration", func() (err error) { dur, err = w.Duration(); return err }) {
		b.state.Duration = dur
	}
	if b.call("volume", func() (err error) { vol, err = w.Volume(); return err }) {
		b.state.Volume = vol
		b.volume = vol
	}
	if b.call("is_muted", func() (err error) { muted, err = w.IsMuted(); return err }) {
		b.state.Muted = muted
	}
}

func (b *Bridge) startPollingLocked() {
	if b.stopped != nil || !b.detail || !b.readyLocked() {
		return
	}
	stop := make(chan struct{})
	b.stopped = stop
	go b.pollLoop(b.token, stop)
}

func (b *Bridge) stopPollingLocked() {
	if b.stopped != nil {
		close(b.stopped)
		b.stopped = nil
	}
}

func (b *Bridge) pollLoop(tok uuid.UUID, stop <-chan struct{}) {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		b.mu.Lock()
		select {
		case <-stop:
			b.mu.Unlock()
			return
		default:
		}
		if tok == b.token {
			b.pollLocked()
		}
		b.mu.Unlock()
	}
}

func (b *Bridge) onReady(tok uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.staleLocked(tok) || b.state.Ready {
		return
	}
	b.state.Ready = true
	w := b.widget
	var dur float64
	if b.call("duration", func() (err error) { dur, err = w.Duration(); return err }) {
		b.state.Duration = dur
	}
	vol := b.volume
	if b.call("set_volume", func() error { return w.SetVolume(vol) }) {
		b.state.Volume = vol
	}
	if b.call("play", w.Play) {
		b.state.Playing = true
	}
	b.log.WithFields(logrus.Fields{"item": b.item.ExternalID, "duration": dur}).Info("widget ready")
	b.startPollingLocked()
}

func (b *Bridge) onStateChange(tok uuid.UUID, s WidgetState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.staleLocked(tok) {
		return
	}
	switch s {
	case WidgetPlaying:
		b.state.Playing = true
	case WidgetPaused:
		b.state.Playing = false
	case WidgetEnded:
		b.state.Playing = false
		b.state.Position = 0
	}
}

// staleLocked reports whether a callback from the instance identified by
// tok must be discarded.
func (b *Bridge) staleLocked(tok uuid.UUID) bool {
	if tok != uuid.Nil && tok == b.token && b.widget != nil {
		return false
	}
	b.metrics.StaleCallbacks.Inc()
	return true
}

func (b *Bridge) readyLocked() bool {
	return b.widget != nil && b.state.Ready
}

// call runs one widget call, converting errors and panics into a logged
// failure. It reports whether the call succeeded.
func (b *Bridge) call(name string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.fail(name, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		b.fail(name, err)
		return false
	}
	return true
}

func (b *Bridge) fail(name string, err error) {
	b.metrics.WidgetErrors.WithLabelValues(name).Inc()
	b.log.WithFields(logrus.Fields{
		"call":   name,
		"item":   b.item.ExternalID,
		"widget": b.token.String(),
	}).WithError(err).Warn("widget call failed")
}
