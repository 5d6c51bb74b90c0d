package player

// WidgetState is a transport state reported by an embeddable widget. The
// numeric values follow the embeddable player's own state codes.
type WidgetState int

const (
	WidgetUnstarted WidgetState = -1
	WidgetEnded     WidgetState = 0
	WidgetPlaying   WidgetState = 1
	WidgetPaused    WidgetState = 2
	WidgetBuffering WidgetState = 3
	WidgetCued      WidgetState = 5
)

func (s WidgetState) String() string {
	switch s {
	case WidgetUnstarted:
		return "unstarted"
	case WidgetEnded:
		return "ended"
	case WidgetPlaying:
		return "playing"
	case WidgetPaused:
		return "paused"
	case WidgetBuffering:
		return "buffering"
	case WidgetCued:
		return "cued"
	}
	return "unknown"
}

// Widget is the control surface of one embeddable media widget instance.
// Every method may fail, for example when the instance was torn down while
// a call was in progress.
type Widget interface {
	Play() error
	Pause() error
	SeekTo(seconds float64) error
	CurrentTime() (float64, error)
	Duration() (float64, error)
	// SetVolume accepts a percentage in [0,100].
	SetVolume(percent int) error
	Volume() (int, error)
	Mute() error
	Unmute() error
	IsMuted() (bool, error)
	Destroy() error
}

// Options are the display options passed to a widget on construction.
type Options struct {
	Autoplay     bool
	HideControls bool
	PlaysInline  bool
}

// Hooks receive the asynchronous notifications of a widget instance.
//
// Factories and widgets must invoke hooks from their own goroutine, never
// synchronously from inside Create or a Widget method call.
type Hooks struct {
	OnReady       func()
	OnStateChange func(WidgetState)
}

// Factory constructs widget instances bound to an external media ID.
// Construction is asynchronous: the returned widget is not usable until
// Hooks.OnReady fires.
type Factory interface {
	Create(externalID string, opts Options, hooks Hooks) (Widget, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(externalID string, opts Options, hooks Hooks) (Widget, error)

// Create calls f.
func (f FactoryFunc) Create(externalID string, opts Options, hooks Hooks) (Widget, error) {
	return f(externalID, opts, hooks)
}
