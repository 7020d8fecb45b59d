package animation

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/rig/scene"
)

func TestSaveRestoreRoundTrip(t *testing.T) {
	g := scene.NewGraph()
	hip := g.AddNode(scene.NewNode("hip"))

	res := &stubResource{graph: g}

	c := NewAnimationContainer()
	a := NewAnimation()
	track := NewTrack()
	track.SetNode(hip)
	track.SetKeyFrames([]KeyFrame{keyAt(0, 0), keyAt(5, 1)})
	a.AddTrack(track)
	a.SetSpeed(2)
	a.SetLoop(false)
	a.SetTimePosition(3)
	a.SetResource(res)
	sig := NewSignal(9, 4)
	sig.SetName("footstep")
	a.AddSignal(sig)

	// A second animation that gets removed before saving: its handle must
	// stay stale after a round trip.
	freed := c.Add(NewAnimation())
	kept := c.Add(a)
	c.Remove(freed)

	rec := c.Save()

	// Through yaml and back, like a save file on disk.
	data, err := yaml.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var loaded ContainerRecord
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var resolvedPath string
	fresh := NewAnimationContainer()
	err = fresh.Restore(loaded, func(path string) Resource {
		resolvedPath = path
		return res
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	got := fresh.Get(kept)
	if got == nil {
		t.Fatalf("restored animation must resolve at its original handle")
	}
	if fresh.Get(freed) != nil {
		t.Fatalf("freed handle must stay stale after restore")
	}
	if got.Speed() != 2 || got.Looped() || !floatEq(got.TimePosition(), 3) {
		t.Fatalf("playback state lost: speed=%v looped=%v t=%v", got.Speed(), got.Looped(), got.TimePosition())
	}
	if resolvedPath != "stub" {
		t.Fatalf("expected resource path %q to be resolved, got %q", "stub", resolvedPath)
	}
	if got.Resource() != res {
		t.Fatalf("expected resolver's resource to be rebound")
	}

	tracks := got.Tracks()
	if len(tracks) != 1 {
		t.Fatalf("expected 1 restored track, got %d", len(tracks))
	}
	// Key frames are not persisted; Resolve re-derives them later.
	if len(tracks[0].KeyFrames()) != 0 {
		t.Fatalf("restored track must have no frames before resolve")
	}
	if tracks[0].Node() != hip || !floatEq(tracks[0].MaxTime(), 5) {
		t.Fatalf("track structure lost: node=%v maxTime=%v", tracks[0].Node(), tracks[0].MaxTime())
	}

	sigs := got.Signals()
	if len(sigs) != 1 || sigs[0].ID() != 9 || sigs[0].Name() != "footstep" || !floatEq(sigs[0].Time(), 4) {
		t.Fatalf("signal state lost: %v", sigs)
	}
}

func TestRestoreIntoNonEmptyPanics(t *testing.T) {
	c := NewAnimationContainer()
	c.Add(NewAnimation())

	defer func() {
		if recover() == nil {
			t.Fatalf("restore into a non-empty container must panic")
		}
	}()
	_ = c.Restore(ContainerRecord{}, nil)
}

func TestRestoreEmptyRecord(t *testing.T) {
	c := NewAnimationContainer()
	if err := c.Restore(ContainerRecord{}, nil); err != nil {
		t.Fatalf("restore of empty record: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty container, got %d", c.Len())
	}
}
