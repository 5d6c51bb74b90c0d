package player

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filyy5040/yeti-radio-streams/pkg/metrics"
	"github.com/filyy5040/yeti-radio-streams/pkg/music"
)

func newTestBridge(t *testing.T, cfg Config) (*Bridge, *fakeFactory, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	f := &fakeFactory{}
	return NewBridge(f, cfg), f, hook
}

// readyBridge binds an item and fires the ready hook.
func readyBridge(t *testing.T, cfg Config) (*Bridge, *fakeWidget, *logtest.Hook) {
	t.Helper()
	b, f, hook := newTestBridge(t, cfg)
	b.Bind(music.Item{ExternalID: "vid"})
	w := f.last()
	w.hooks.OnReady()
	return b, w, hook
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestBindCreatesWidgetWithOptions(t *testing.T) {
	b, f, _ := newTestBridge(t, Config{})
	b.Bind(music.Item{ExternalID: "abc", Title: "Song"})

	require.Len(t, f.created, 1)
	w := f.last()
	assert.Equal(t, "abc", w.id)
	assert.Equal(t, DefaultOptions, w.opts)
	item, ok := b.Item()
	assert.True(t, ok)
	assert.Equal(t, "Song", item.Title)
	assert.Equal(t, PlaybackState{Volume: DefaultVolume}, b.State())
}

// TestBindReleasesPreviousInstance verifies at most one widget is ever alive.
func TestBindReleasesPreviousInstance(t *testing.T) {
	b, f, _ := newTestBridge(t, Config{})
	for _, id := range []string{"a", "b", "c", "d"} {
		b.Bind(music.Item{ExternalID: id})
	}
	assert.Equal(t, 1, f.maxLive)
	assert.Equal(t, 1, f.live)
	for _, w := range f.created[:3] {
		assert.Equal(t, 1, w.count("destroy"))
	}
	assert.Zero(t, f.last().count("destroy"))
}

func TestBindResetsState(t *testing.T) {
	b, w, _ := readyBridge(t, Config{Volume: 40})
	w.set(50, 200, 40, false)
	b.Poll()
	require.True(t, b.State().Ready)

	b.Bind(music.Item{ExternalID: "next"})
	assert.Equal(t, PlaybackState{Volume: 40}, b.State())
}

// TestReadyStartsPlaybackOnce checks the autoplay policy and duration read.
func TestReadyStartsPlaybackOnce(t *testing.T) {
	b, w, _ := readyBridge(t, Config{Volume: 35})

	st := b.State()
	assert.True(t, st.Ready)
	assert.True(t, st.Playing)
	assert.Equal(t, 180.0, st.Duration)
	assert.Equal(t, 35, st.Volume)
	assert.Equal(t, 1, w.count("play"))
	assert.Equal(t, 1, w.count("set_volume"))

	w.hooks.OnReady()
	assert.Equal(t, 1, w.count("play"))
}

func TestStateChangeHook(t *testing.T) {
	b, w, _ := readyBridge(t, Config{})
	w.hooks.OnStateChange(WidgetPaused)
	assert.False(t, b.State().Playing)
	w.hooks.OnStateChange(WidgetPlaying)
	assert.True(t, b.State().Playing)

	b.Seek(42)
	w.hooks.OnStateChange(WidgetBuffering)
	assert.True(t, b.State().Playing)
	assert.Equal(t, 42.0, b.State().Position)

	w.hooks.OnStateChange(WidgetEnded)
	st := b.State()
	assert.False(t, st.Playing)
	assert.Zero(t, st.Position)
}

func TestCommandsIgnoredBeforeReady(t *testing.T) {
	b, f, _ := newTestBridge(t, Config{})
	b.TogglePlayPause()
	b.Seek(10)
	b.Skip(10)
	b.ToggleMute()

	b.Bind(music.Item{ExternalID: "x"})
	w := f.last()
	b.TogglePlayPause()
	b.Seek(10)
	b.Skip(10)
	b.ToggleMute()
	assert.Empty(t, w.calls)
	assert.Equal(t, PlaybackState{Volume: DefaultVolume}, b.State())
}

func TestTogglePlayPause(t *testing.T) {
	b, w, _ := readyBridge(t, Config{})
	b.TogglePlayPause()
	assert.False(t, b.State().Playing)
	assert.Equal(t, 1, w.count("pause"))

	b.TogglePlayPause()
	assert.True(t, b.State().Playing)
	assert.Equal(t, 2, w.count("play"))
}

// TestSeekPollWins ensures a poll tick overwrites an optimistic seek.
func TestSeekPollWins(t *testing.T) {
	b, w, _ := readyBridge(t, Config{})
	b.Seek(90)
	assert.Equal(t, 90.0, b.State().Position)
	assert.Equal(t, []float64{90}, w.seeks)

	w.set(87.5, 180, 100, false)
	b.Poll()
	assert.Equal(t, 87.5, b.State().Position)
}

func TestSkipClamps(t *testing.T) {
	b, w, _ := readyBridge(t, Config{})
	w.set(5, 120, 100, false)
	b.Poll()

	b.Skip(-10)
	assert.Equal(t, []float64{0}, w.seeks)
	assert.Zero(t, b.State().Position)

	w.set(115, 120, 100, false)
	b.Poll()
	b.Skip(10)
	assert.Equal(t, []float64{0, 120}, w.seeks)
	assert.Equal(t, 120.0, b.State().Position)

	b.Skip(-30)
	assert.Equal(t, 90.0, b.State().Position)
}

func TestSetVolumeMuteSemantics(t *testing.T) {
	b, w, _ := readyBridge(t, Config{})

	b.SetVolume(0)
	st := b.State()
	assert.True(t, st.Muted)
	assert.Zero(t, st.Volume)
	assert.Zero(t, w.count("mute"))

	b.SetVolume(30)
	st = b.State()
	assert.False(t, st.Muted)
	assert.Equal(t, 30, st.Volume)
	assert.Equal(t, 1, w.count("unmute"))

	b.SetVolume(250)
	assert.Equal(t, 100, b.State().Volume)
}

// TestZeroVolumeStaysMutedAcrossBind checks a zero volume chosen while
// nothing is bound still reads as muted once an item is bound.
func TestZeroVolumeStaysMutedAcrossBind(t *testing.T) {
	b, f, _ := newTestBridge(t, Config{})
	b.SetVolume(0)
	assert.Equal(t, PlaybackState{Volume: 0, Muted: true}, b.State())

	b.Bind(music.Item{ExternalID: "x"})
	assert.Equal(t, PlaybackState{Volume: 0, Muted: true}, b.State())

	f.last().hooks.OnReady()
	st := b.State()
	assert.True(t, st.Muted)
	assert.Zero(t, st.Volume)

	b.SetVolume(60)
	assert.False(t, b.State().Muted)
	b.Release()
	assert.Equal(t, PlaybackState{Volume: 60}, b.State())
}

// TestSetVolumeBeforeReadyApplied checks the desired volume reaches the
// next widget once it is ready.
func TestSetVolumeBeforeReadyApplied(t *testing.T) {
	b, f, _ := newTestBridge(t, Config{})
	b.SetVolume(25)
	b.Bind(music.Item{ExternalID: "x"})
	w := f.last()
	assert.Zero(t, w.count("set_volume"))

	w.hooks.OnReady()
	assert.Equal(t, 25, w.vol)
	assert.Equal(t, 25, b.State().Volume)
}

func TestToggleMuteRereadsVolume(t *testing.T) {
	b, w, _ := readyBridge(t, Config{})
	b.ToggleMute()
	assert.True(t, b.State().Muted)
	assert.Equal(t, 1, w.count("mute"))

	w.set(0, 180, 64, true)
	b.ToggleMute()
	st := b.State()
	assert.False(t, st.Muted)
	assert.Equal(t, 64, st.Volume)
	assert.Equal(t, 1, w.count("unmute"))
}

// TestWidgetFailuresSwallowed verifies errors and panics are logged and leave
// the last good state in place.
func TestWidgetFailuresSwallowed(t *testing.T) {
	reg := prometheus.NewRegistry()
	b, w, hook := readyBridge(t, Config{Metrics: metrics.New(reg)})
	w.set(10, 180, 100, false)
	b.Poll()

	w.failOn("current_time")
	w.panicOn("is_muted")
	w.set(99, 200, 50, true)
	assert.NotPanics(t, b.Poll)

	st := b.State()
	assert.Equal(t, 10.0, st.Position)
	assert.Equal(t, 200.0, st.Duration)
	assert.Equal(t, 50, st.Volume)
	assert.False(t, st.Muted)

	w.panicOn("pause")
	assert.NotPanics(t, b.TogglePlayPause)
	assert.True(t, b.State().Playing)

	assert.Equal(t, 3.0, counterValue(t, reg, "radio_widget_errors_total"))
	var warned int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned++
		}
	}
	assert.Equal(t, 3, warned)
}

func TestCreateFailureLeavesNothingBound(t *testing.T) {
	b, f, hook := newTestBridge(t, Config{})
	f.err = errFake
	b.Bind(music.Item{ExternalID: "x"})
	_, ok := b.Item()
	assert.False(t, ok)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "create", hook.LastEntry().Data["call"])
}

// TestReleaseDiscardsLateCallbacks fires hooks after release and checks the
// state is untouched.
func TestReleaseDiscardsLateCallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	b, f, _ := newTestBridge(t, Config{Metrics: metrics.New(reg)})
	b.Bind(music.Item{ExternalID: "x"})
	w := f.last()
	b.Release()

	before := b.State()
	w.hooks.OnReady()
	w.hooks.OnStateChange(WidgetPlaying)
	b.Poll()
	assert.Equal(t, before, b.State())
	assert.Zero(t, w.count("play"))
	assert.Equal(t, 1, w.count("destroy"))
	assert.Equal(t, 2.0, counterValue(t, reg, "radio_stale_callbacks_total"))
}

// TestRebindDiscardsPreviousCallbacks covers a late ready from a replaced
// instance.
func TestRebindDiscardsPreviousCallbacks(t *testing.T) {
	b, f, _ := newTestBridge(t, Config{})
	b.Bind(music.Item{ExternalID: "old"})
	old := f.last()
	b.Bind(music.Item{ExternalID: "new"})

	old.hooks.OnReady()
	assert.False(t, b.State().Ready)
	assert.Zero(t, old.count("play"))

	f.last().hooks.OnReady()
	assert.True(t, b.State().Ready)
}

func TestPollingFollowsDetailVisibility(t *testing.T) {
	b, w, _ := readyBridge(t, Config{PollInterval: 5 * time.Millisecond})
	assert.False(t, b.Polling())

	b.SetDetailVisible(true)
	assert.True(t, b.Polling())
	w.set(33, 180, 80, false)
	assert.Eventually(t, func() bool { return b.State().Position == 33 }, time.Second, 5*time.Millisecond)

	b.SetDetailVisible(false)
	assert.False(t, b.Polling())
}

// TestPollingStartsOnReady checks a visible detail view starts polling once
// the widget becomes ready and not before.
func TestPollingStartsOnReady(t *testing.T) {
	b, f, _ := newTestBridge(t, Config{PollInterval: 5 * time.Millisecond})
	b.SetDetailVisible(true)
	b.Bind(music.Item{ExternalID: "x"})
	assert.False(t, b.Polling())

	f.last().hooks.OnReady()
	assert.True(t, b.Polling())
}

// TestReleaseStopsPolling verifies no poll reads happen after release.
func TestReleaseStopsPolling(t *testing.T) {
	b, w, _ := readyBridge(t, Config{PollInterval: 2 * time.Millisecond})
	b.SetDetailVisible(true)
	assert.Eventually(t, func() bool { return w.count("current_time") > 0 }, time.Second, time.Millisecond)

	b.Release()
	assert.False(t, b.Polling())
	reads := w.count("current_time")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, reads, w.count("current_time"))
	assert.Equal(t, PlaybackState{Volume: 100}, b.State())
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00", FormatTime(0))
	assert.Equal(t, "0:07", FormatTime(7.9))
	assert.Equal(t, "3:05", FormatTime(185))
	assert.Equal(t, "61:01", FormatTime(3661))
	assert.Equal(t, "0:00", FormatTime(-4))
}

func TestWidgetStateString(t *testing.T) {
	assert.Equal(t, "playing", WidgetPlaying.String())
	assert.Equal(t, "ended", WidgetEnded.String())
	assert.Equal(t, "unknown", WidgetState(9).String())
}
