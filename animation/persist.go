package animation

import (
	"fmt"

	"github.com/milk9111/rig/pool"
)

// TrackRecord is the saved structural state of a track. Key frames are
// deliberately absent: they are re-derived from the source resource by
// Resolve after load.
type TrackRecord struct {
	Node    pool.Handle `yaml:"node"`
	Enabled bool        `yaml:"enabled"`
	MaxTime float32     `yaml:"max_time"`
}

// SignalRecord is the saved state of a timeline signal.
type SignalRecord struct {
	ID      uint64  `yaml:"id"`
	Name    string  `yaml:"name,omitempty"`
	Time    float32 `yaml:"time"`
	Enabled bool    `yaml:"enabled"`
}

// AnimationRecord is the saved state of one animation, keyed by the arena
// handle it occupied so references from state actions survive a round trip.
type AnimationRecord struct {
	Handle       pool.Handle    `yaml:"handle"`
	Tracks       []TrackRecord  `yaml:"tracks,omitempty"`
	Speed        float32        `yaml:"speed"`
	Length       float32        `yaml:"length"`
	TimePosition float32        `yaml:"time_position"`
	Resource     string         `yaml:"resource,omitempty"`
	Looped       bool           `yaml:"looped"`
	Enabled      bool           `yaml:"enabled"`
	Signals      []SignalRecord `yaml:"signals,omitempty"`
}

// ContainerRecord is the saved state of a whole container.
type ContainerRecord struct {
	Animations []AnimationRecord `yaml:"animations"`
}

// ResourceResolver rebinds a saved resource path to a live resource.
// Returning nil leaves the animation without a resource.
type ResourceResolver func(path string) Resource

// Save captures the container's state as plain records.
func (c *AnimationContainer) Save() ContainerRecord {
	var rec ContainerRecord
	c.ForEach(func(h pool.Handle, a *Animation) {
		rec.Animations = append(rec.Animations, a.save(h))
	})
	return rec
}

func (a *Animation) save(h pool.Handle) AnimationRecord {
	rec := AnimationRecord{
		Handle:       h,
		Speed:        a.speed,
		Length:       a.length,
		TimePosition: a.timePosition,
		Looped:       a.looped,
		Enabled:      a.enabled,
	}
	if a.resource != nil {
		rec.Resource = a.resource.Path()
	}
	for _, t := range a.tracks {
		rec.Tracks = append(rec.Tracks, TrackRecord{
			Node:    t.node,
			Enabled: t.enabled,
			MaxTime: t.maxTime,
		})
	}
	for _, s := range a.signals {
		rec.Signals = append(rec.Signals, SignalRecord{
			ID:      s.id,
			Name:    s.name,
			Time:    s.time,
			Enabled: s.enabled,
		})
	}
	return rec
}

// Restore rebuilds the container from saved records, placing every
// animation back at its original handle. The container must be empty:
// restoring on top of live animations would merge two unrelated handle
// spaces, so it is treated as a programmer error and panics.
func (c *AnimationContainer) Restore(rec ContainerRecord, resolve ResourceResolver) error {
	if !c.pool.Empty() {
		panic("animation: container must be empty before restore")
	}
	for _, ar := range rec.Animations {
		a := restoreAnimation(ar, resolve)
		if err := c.pool.Put(ar.Handle, a); err != nil {
			return fmt.Errorf("restore animation %v: %w", ar.Handle, err)
		}
	}
	return nil
}

func restoreAnimation(rec AnimationRecord, resolve ResourceResolver) *Animation {
	a := &Animation{
		speed:        rec.Speed,
		length:       rec.Length,
		timePosition: rec.TimePosition,
		looped:       rec.Looped,
		enabled:      rec.Enabled,
	}
	if rec.Resource != "" && resolve != nil {
		a.resource = resolve(rec.Resource)
	}
	for _, tr := range rec.Tracks {
		t := NewTrack()
		t.node = tr.Node
		t.enabled = tr.Enabled
		t.maxTime = tr.MaxTime
		a.tracks = append(a.tracks, t)
	}
	for _, sr := range rec.Signals {
		a.signals = append(a.signals, AnimationSignal{
			id:      sr.ID,
			name:    sr.Name,
			time:    sr.Time,
			enabled: sr.Enabled,
		})
	}
	return a
}
