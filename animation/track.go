// Package animation implements keyframed transform tracks, pose blending,
// timed playback with signal events, and the arena that owns animations for
// one scene.
package animation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/rig/common"
	"github.com/milk9111/rig/pool"
)

// KeyFrame is one immutable sample on a track: a local transform at a time.
type KeyFrame struct {
	Time     float32
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
}

// NewKeyFrame creates a key frame.
func NewKeyFrame(time float32, position, scale mgl32.Vec3, rotation mgl32.Quat) KeyFrame {
	return KeyFrame{
		Time:     time,
		Position: position,
		Scale:    scale,
		Rotation: rotation,
	}
}

// Track is an ordered sequence of key frames bound to one scene node.
// Frames are kept in non-decreasing time order.
type Track struct {
	frames  []KeyFrame
	enabled bool
	maxTime float32
	node    pool.Handle
}

// NewTrack creates an empty, enabled track.
func NewTrack() *Track {
	return &Track{enabled: true}
}

func (t *Track) SetNode(node pool.Handle) {
	t.node = node
}

func (t *Track) Node() pool.Handle {
	return t.node
}

func (t *Track) SetEnabled(enabled bool) {
	t.enabled = enabled
}

func (t *Track) Enabled() bool {
	return t.enabled
}

func (t *Track) MaxTime() float32 {
	return t.maxTime
}

// AddKeyFrame inserts a key frame keeping the frames sorted by time. A frame
// later than everything present is appended and raises maxTime; otherwise it
// is inserted before the first frame whose time is not less than its own.
// Only the append path ever moves maxTime; replacing the whole set via
// SetKeyFrames is the only way it can decrease.
func (t *Track) AddKeyFrame(kf KeyFrame) {
	if kf.Time > t.maxTime {
		t.frames = append(t.frames, kf)
		t.maxTime = kf.Time
		return
	}
	index := len(t.frames)
	for i, other := range t.frames {
		if other.Time >= kf.Time {
			index = i
			break
		}
	}
	t.frames = append(t.frames, KeyFrame{})
	copy(t.frames[index+1:], t.frames[index:])
	t.frames[index] = kf
}

// SetKeyFrames replaces the whole frame set and recomputes maxTime.
func (t *Track) SetKeyFrames(frames []KeyFrame) {
	t.frames = append([]KeyFrame(nil), frames...)
	t.maxTime = 0
	for _, kf := range t.frames {
		if kf.Time > t.maxTime {
			t.maxTime = kf.Time
		}
	}
}

// KeyFrames returns the track's frames. Callers must not mutate the slice.
func (t *Track) KeyFrames() []KeyFrame {
	return t.frames
}

// LocalPoseAt samples the track at the given time. Times outside the track
// clamp to the first or last frame; in between, position and scale are
// interpolated linearly and rotation spherically. Returns false for an
// empty track.
func (t *Track) LocalPoseAt(time float32) (LocalPose, bool) {
	if len(t.frames) == 0 {
		return LocalPose{}, false
	}

	if time >= t.maxTime {
		last := t.frames[len(t.frames)-1]
		return t.poseFrom(last), true
	}

	time = common.Clamp(time, 0, t.maxTime)

	rightIndex := 0
	for i, kf := range t.frames {
		if kf.Time >= time {
			rightIndex = i
			break
		}
	}

	if rightIndex == 0 {
		return t.poseFrom(t.frames[0]), true
	}

	left := t.frames[rightIndex-1]
	right := t.frames[rightIndex]
	k := (time - left.Time) / (right.Time - left.Time)

	return LocalPose{
		Node:     t.node,
		Position: left.Position.Add(right.Position.Sub(left.Position).Mul(k)),
		Scale:    left.Scale.Add(right.Scale.Sub(left.Scale).Mul(k)),
		Rotation: mgl32.QuatSlerp(left.Rotation, right.Rotation, k),
	}, true
}

func (t *Track) poseFrom(kf KeyFrame) LocalPose {
	return LocalPose{
		Node:     t.node,
		Position: kf.Position,
		Scale:    kf.Scale,
		Rotation: kf.Rotation,
	}
}
