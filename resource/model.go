// Package resource loads model bundles (a node hierarchy plus reference
// animations with key frames) and shares them between animation instances.
// A bundle may be hot-reloaded while animations retarget from it, so every
// reader takes the bundle's lock first.
package resource

import (
	"sync"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/pool"
	"github.com/milk9111/rig/scene"
)

// Model is a loaded bundle: the graph the reference animations are bound to
// and the animations themselves, key frames included.
type Model struct {
	Graph      *scene.Graph
	Animations []*animation.Animation
}

// SharedModel is a reference-counted, mutex-guarded handle to a Model.
// Multiple animations across scenes may hold the same SharedModel; Swap
// replaces the content in place so all of them observe the reload.
type SharedModel struct {
	mu    sync.Mutex
	path  string
	model *Model
}

var _ animation.Resource = (*SharedModel)(nil)

// NewSharedModel wraps m for sharing. path identifies it for persistence.
func NewSharedModel(path string, m *Model) *SharedModel {
	return &SharedModel{path: path, model: m}
}

func (s *SharedModel) Lock() {
	s.mu.Lock()
}

func (s *SharedModel) Unlock() {
	s.mu.Unlock()
}

// RefAnimation returns the bundle's first animation, or nil. The caller
// must hold the lock.
func (s *SharedModel) RefAnimation() *animation.Animation {
	if s.model == nil || len(s.model.Animations) == 0 {
		return nil
	}
	return s.model.Animations[0]
}

// RefGraph returns the bundle's graph. The caller must hold the lock.
func (s *SharedModel) RefGraph() *scene.Graph {
	if s.model == nil {
		return nil
	}
	return s.model.Graph
}

// Path returns the bundle's identity for persistence.
func (s *SharedModel) Path() string {
	return s.path
}

// Swap replaces the bundle content under the lock, so a concurrent Resolve
// never observes a torn animation list.
func (s *SharedModel) Swap(m *Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

// Instantiate builds a new animation targeted at g from the bundle's first
// animation. For every reference track it binds a track to the node in g
// with the same name, then copies the key frames across. Tracks whose node
// has no counterpart in g are skipped.
func (s *SharedModel) Instantiate(g *scene.Graph) *animation.Animation {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := animation.NewAnimation()
	inst.SetResource(s)

	ref := s.RefAnimation()
	if ref == nil {
		return inst
	}
	refGraph := s.RefGraph()

	for _, refTrack := range ref.Tracks() {
		refNode := refGraph.Node(refTrack.Node())
		if refNode == nil {
			continue
		}
		target := g.FindByName(refNode.Name())
		if target == pool.None {
			continue
		}
		t := animation.NewTrack()
		t.SetNode(target)
		t.SetKeyFrames(refTrack.KeyFrames())
		inst.AddTrack(t)
	}
	return inst
}
