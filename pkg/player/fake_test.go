package player

import (
	"errors"
	"sync"
)

// fakeFactory records created widgets and tracks how many are alive at once.
type fakeFactory struct {
	mu      sync.Mutex
	live    int
	maxLive int
	created []*fakeWidget
	err     error
}

func (f *fakeFactory) Create(id string, opts Options, hooks Hooks) (Widget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.live++
	if f.live > f.maxLive {
		f.maxLive = f.live
	}
	w := &fakeWidget{id: id, opts: opts, hooks: hooks, factory: f, vol: 100, dur: 180}
	f.created = append(f.created, w)
	return w, nil
}

func (f *fakeFactory) last() *fakeWidget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[len(f.created)-1]
}

// fakeWidget is an in-memory widget. Hooks are fired explicitly by tests.
type fakeWidget struct {
	factory *fakeFactory
	id      string
	opts    Options
	hooks   Hooks

	mu        sync.Mutex
	pos, dur  float64
	vol       int
	muted     bool
	destroyed bool
	fail      map[string]error
	panics    map[string]bool
	calls     []string
	seeks     []float64
}

var errFake = errors.New("widget unavailable")

func (w *fakeWidget) record(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, name)
	if w.panics[name] {
		panic(name + " not available")
	}
	return w.fail[name]
}

func (w *fakeWidget) failOn(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail == nil {
		w.fail = map[string]error{}
	}
	w.fail[name] = errFake
}

func (w *fakeWidget) panicOn(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.panics == nil {
		w.panics = map[string]bool{}
	}
	w.panics[name] = true
}

func (w *fakeWidget) count(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (w *fakeWidget) set(pos, dur float64, vol int, muted bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pos, w.dur, w.vol, w.muted = pos, dur, vol, muted
}

func (w *fakeWidget) Play() error  { return w.record("play") }
func (w *fakeWidget) Pause() error { return w.record("pause") }

func (w *fakeWidget) SeekTo(s float64) error {
	if err := w.record("seek"); err != nil {
		return err
	}
	w.mu.Lock()
	w.seeks = append(w.seeks, s)
	w.mu.Unlock()
	return nil
}

func (w *fakeWidget) CurrentTime() (float64, error) {
	err := w.record("current_time")
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos, err
}

func (w *fakeWidget) Duration() (float64, error) {
	err := w.record("duration")
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dur, err
}

func (w *fakeWidget) SetVolume(p int) error {
	if err := w.record("set_volume"); err != nil {
		return err
	}
	w.mu.Lock()
	w.vol = p
	w.mu.Unlock()
	return nil
}

func (w *fakeWidget) Volume() (int, error) {
	err := w.record("volume")
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.vol, err
}

func (w *fakeWidget) Mute() error   { return w.record("mute") }
func (w *fakeWidget) Unmute() error { return w.record("unmute") }

func (w *fakeWidget) IsMuted() (bool, error) {
	err := w.record("is_muted")
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.muted, err
}

func (w *fakeWidget) Destroy() error {
	err := w.record("destroy")
	w.mu.Lock()
	already := w.destroyed
	w.destroyed = true
	w.mu.Unlock()
	if !already {
		w.factory.mu.Lock()
		w.factory.live--
		w.factory.mu.Unlock()
	}
	return err
}
