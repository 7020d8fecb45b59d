package animation

import (
	"log"

	"github.com/milk9111/rig/pool"
	"github.com/milk9111/rig/scene"
)

// AnimationContainer is the arena owning every animation of one scene.
// Handles returned by Add stay valid across removal of other entries.
type AnimationContainer struct {
	pool pool.Pool[*Animation]
}

// NewAnimationContainer creates an empty container.
func NewAnimationContainer() *AnimationContainer {
	return &AnimationContainer{}
}

// Add stores an animation and returns its handle.
func (c *AnimationContainer) Add(a *Animation) pool.Handle {
	return c.pool.Spawn(a)
}

// Remove frees the animation behind h. Returns false for stale handles.
func (c *AnimationContainer) Remove(h pool.Handle) bool {
	return c.pool.Free(h)
}

// Clear drops every animation.
func (c *AnimationContainer) Clear() {
	c.pool.Clear()
}

// Get returns the animation behind h, or nil if h is stale.
func (c *AnimationContainer) Get(h pool.Handle) *Animation {
	if p, ok := c.pool.TryBorrow(h); ok {
		return *p
	}
	return nil
}

// TryGet returns the animation behind h and whether it exists.
func (c *AnimationContainer) TryGet(h pool.Handle) (*Animation, bool) {
	if p, ok := c.pool.TryBorrow(h); ok {
		return *p, true
	}
	return nil, false
}

// Len returns the number of stored animations.
func (c *AnimationContainer) Len() int {
	return c.pool.Len()
}

// ForEach visits every stored animation.
func (c *AnimationContainer) ForEach(fn func(pool.Handle, *Animation)) {
	c.pool.ForEach(func(h pool.Handle, p **Animation) {
		fn(h, *p)
	})
}

// Retain removes every animation for which pred returns false.
func (c *AnimationContainer) Retain(pred func(*Animation) bool) {
	c.pool.Retain(func(p **Animation) bool {
		return pred(*p)
	})
}

// Resolve retargets every stored animation against its source resource.
// Run once after the scene and its animations are instantiated or loaded.
func (c *AnimationContainer) Resolve(g *scene.Graph) {
	log.Printf("animation: resolving %d animations", c.pool.Len())
	c.ForEach(func(_ pool.Handle, a *Animation) {
		a.Resolve(g)
	})
	log.Printf("animation: animations resolved")
}

// UpdateAnimations ticks every enabled animation. Disabled animations are
// skipped entirely: no pose recompute and no event generation.
func (c *AnimationContainer) UpdateAnimations(dt float32) {
	c.ForEach(func(_ pool.Handle, a *Animation) {
		if a.Enabled() {
			a.tick(dt)
		}
	})
}
