package animation

// AnimationSignal is a named time marker on an animation's timeline. When
// playback crosses its time an AnimationEvent carrying the signal's id is
// queued on the animation.
type AnimationSignal struct {
	id      uint64
	name    string
	time    float32
	enabled bool
}

// NewSignal creates an enabled signal at the given time.
func NewSignal(id uint64, time float32) AnimationSignal {
	return AnimationSignal{
		id:      id,
		time:    time,
		enabled: true,
	}
}

func (s *AnimationSignal) ID() uint64 {
	return s.id
}

// Name is tooling metadata only; it has no effect on event generation.
func (s *AnimationSignal) Name() string {
	return s.name
}

func (s *AnimationSignal) SetName(name string) {
	s.name = name
}

func (s *AnimationSignal) Time() float32 {
	return s.time
}

func (s *AnimationSignal) SetTime(time float32) {
	s.time = time
}

func (s *AnimationSignal) Enabled() bool {
	return s.enabled
}

func (s *AnimationSignal) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// AnimationEvent is produced when playback crosses a signal's time.
type AnimationEvent struct {
	SignalID uint64
}

// eventQueueCap bounds the per-animation event queue. Crossings generated
// while the queue is full are dropped.
const eventQueueCap = 32
