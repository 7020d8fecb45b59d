package animation

import (
	"log"

	"github.com/milk9111/rig/common"
	"github.com/milk9111/rig/pool"
	"github.com/milk9111/rig/scene"
)

// Resource is a shared source of reference keyframe data used by Resolve.
// Several animations, possibly across scenes, may hold the same resource
// while it is being hot-reloaded elsewhere, so all reads happen between
// Lock and Unlock.
type Resource interface {
	Lock()
	Unlock()

	// RefAnimation returns the resource's first stored animation, or nil.
	// Only valid while the lock is held.
	RefAnimation() *Animation

	// RefGraph returns the graph the reference animation's tracks are bound
	// to. Only valid while the lock is held.
	RefGraph() *scene.Graph

	// Path identifies the resource for persistence.
	Path() string
}

// Animation owns a set of tracks, signals and an event queue, and advances
// its playback state each tick. Key frames are not part of an animation's
// saved state; they are copied back from the source resource by Resolve.
type Animation struct {
	tracks       []*Track
	length       float32
	timePosition float32
	speed        float32
	looped       bool
	enabled      bool
	resource     Resource
	pose         AnimationPose
	signals      []AnimationSignal
	events       []AnimationEvent
}

// NewAnimation creates an empty, enabled, looped animation at normal speed.
func NewAnimation() *Animation {
	return &Animation{
		speed:   1,
		looped:  true,
		enabled: true,
	}
}

// AddTrack appends a track and recomputes the animation length.
func (a *Animation) AddTrack(t *Track) {
	a.tracks = append(a.tracks, t)
	for _, track := range a.tracks {
		if track.MaxTime() > a.length {
			a.length = track.MaxTime()
		}
	}
}

// Tracks returns the animation's tracks.
func (a *Animation) Tracks() []*Track {
	return a.tracks
}

// Length returns the duration, the maximum over all tracks' max times.
func (a *Animation) Length() float32 {
	return a.length
}

// SetTimePosition moves playback to the given time, wrapping into
// [0, length) when looped and clamping to [0, length] otherwise.
func (a *Animation) SetTimePosition(time float32) *Animation {
	if a.looped {
		a.timePosition = common.Wrap(time, 0, a.length)
	} else {
		a.timePosition = common.Clamp(time, 0, a.length)
	}
	return a
}

func (a *Animation) TimePosition() float32 {
	return a.timePosition
}

// Rewind moves playback back to the start.
func (a *Animation) Rewind() *Animation {
	return a.SetTimePosition(0)
}

func (a *Animation) SetSpeed(speed float32) *Animation {
	a.speed = speed
	return a
}

// Speed returns the playback speed multiplier. Negative plays in reverse.
func (a *Animation) Speed() float32 {
	return a.speed
}

func (a *Animation) SetLoop(looped bool) *Animation {
	a.looped = looped
	return a
}

func (a *Animation) Looped() bool {
	return a.looped
}

// HasEnded reports whether a non-looped animation has played to its end.
func (a *Animation) HasEnded() bool {
	return !a.looped && a.timePosition == a.length
}

func (a *Animation) SetEnabled(enabled bool) *Animation {
	a.enabled = enabled
	return a
}

func (a *Animation) Enabled() bool {
	return a.enabled
}

// SetResource binds the source resource Resolve retargets from.
func (a *Animation) SetResource(r Resource) {
	a.resource = r
}

func (a *Animation) Resource() Resource {
	return a.resource
}

// AddSignal registers a timeline signal.
func (a *Animation) AddSignal(s AnimationSignal) *Animation {
	a.signals = append(a.signals, s)
	return a
}

// RemoveSignal removes every signal with the given id.
func (a *Animation) RemoveSignal(id uint64) {
	kept := a.signals[:0]
	for _, s := range a.signals {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	a.signals = kept
}

// Signals returns the animation's signals.
func (a *Animation) Signals() []AnimationSignal {
	return a.signals
}

// PopEvent takes the oldest queued event, if any.
func (a *Animation) PopEvent() (AnimationEvent, bool) {
	if len(a.events) == 0 {
		return AnimationEvent{}, false
	}
	ev := a.events[0]
	a.events = a.events[1:]
	return ev, true
}

// tick recomputes the pose at the current time, queues events for signals
// crossed by this step and commits the new time position.
func (a *Animation) tick(dt float32) {
	a.updatePose()

	current := a.timePosition
	next := current + dt*a.speed

	for i := range a.signals {
		s := &a.signals[i]
		if !s.enabled {
			continue
		}
		if current < s.time && next >= s.time {
			if len(a.events) < eventQueueCap {
				a.events = append(a.events, AnimationEvent{SignalID: s.id})
			}
		}
	}

	a.SetTimePosition(next)
}

// updatePose resets the pose cache and refills it from every enabled track
// at the current time position.
func (a *Animation) updatePose() {
	a.pose.Reset()
	for _, track := range a.tracks {
		if !track.Enabled() {
			continue
		}
		if lp, ok := track.LocalPoseAt(a.timePosition); ok {
			a.pose.addLocalPose(lp, lp.Node)
		}
	}
}

// Pose returns the pose computed by the last tick.
func (a *Animation) Pose() *AnimationPose {
	return &a.pose
}

// SetTracksEnabledFrom enables or disables the track of every node in the
// hierarchy rooted at handle. Useful for masking out skeleton parts, e.g.
// freezing legs from the torso bone down before blending in another
// animation.
func (a *Animation) SetTracksEnabledFrom(handle pool.Handle, enabled bool, g *scene.Graph) {
	stack := []pool.Handle{handle}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, track := range a.tracks {
			if track.Node() == node {
				track.SetEnabled(enabled)
				break
			}
		}
		if n := g.Node(node); n != nil {
			stack = append(stack, n.Children()...)
		}
	}
}

// SetNodeTrackEnabled enables or disables every track bound to handle.
func (a *Animation) SetNodeTrackEnabled(handle pool.Handle, enabled bool) {
	for _, track := range a.tracks {
		if track.Node() == handle {
			track.SetEnabled(enabled)
		}
	}
}

// Resolve copies key frames from the source resource into this animation's
// tracks. Matching is by node name, not handle: a track's node may have been
// instantiated from a different resource than the one supplying the
// animation, so handles do not line up. Tracks with no counterpart in the
// resource keep whatever frames they already have.
func (a *Animation) Resolve(g *scene.Graph) {
	if a.resource == nil {
		return
	}
	a.resource.Lock()
	defer a.resource.Unlock()

	ref := a.resource.RefAnimation()
	if ref == nil {
		return
	}
	refGraph := a.resource.RefGraph()

	for _, track := range a.tracks {
		node := g.Node(track.Node())
		if node == nil {
			log.Printf("animation: track refers to missing node %v, skipping retarget", track.Node())
			continue
		}
		found := false
		for _, refTrack := range ref.Tracks() {
			refNode := refGraph.Node(refTrack.Node())
			if refNode != nil && refNode.Name() == node.Name() {
				track.SetKeyFrames(refTrack.KeyFrames())
				found = true
				break
			}
		}
		if !found {
			log.Printf("animation: failed to copy key frames for node %q", node.Name())
		}
	}
}
