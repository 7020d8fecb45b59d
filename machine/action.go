// Package machine implements the animation blending state machine layer:
// states wrapping external pose-evaluation nodes, the actions run when
// entering or leaving a state, and the machine that drives transitions and
// crossfades between state poses.
package machine

import (
	"math/rand"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/pool"
)

// ActionKind tags a StateAction variant.
type ActionKind int

const (
	// ActionNone does nothing.
	ActionNone ActionKind = iota
	// ActionRewind rewinds one animation.
	ActionRewind
	// ActionEnable enables one animation.
	ActionEnable
	// ActionDisable disables one animation.
	ActionDisable
	// ActionEnableRandom enables one animation picked uniformly at random
	// from a list.
	ActionEnableRandom
)

// StateAction is an operation a state runs against the animation container
// on entry or exit. Typical use is rewinding a one-shot attack animation
// when entering the attack state so it does not start frozen at its end.
type StateAction struct {
	Kind       ActionKind    `yaml:"kind"`
	Animation  pool.Handle   `yaml:"animation,omitempty"`
	Animations []pool.Handle `yaml:"animations,omitempty"`
}

// RewindAnimation builds an action that rewinds h.
func RewindAnimation(h pool.Handle) StateAction {
	return StateAction{Kind: ActionRewind, Animation: h}
}

// EnableAnimation builds an action that enables h.
func EnableAnimation(h pool.Handle) StateAction {
	return StateAction{Kind: ActionEnable, Animation: h}
}

// DisableAnimation builds an action that disables h.
func DisableAnimation(h pool.Handle) StateAction {
	return StateAction{Kind: ActionDisable, Animation: h}
}

// EnableRandomAnimation builds an action that enables one of handles,
// chosen uniformly at random on every application.
func EnableRandomAnimation(handles ...pool.Handle) StateAction {
	return StateAction{Kind: ActionEnableRandom, Animations: handles}
}

// Apply runs the action against the container. A handle whose animation has
// been removed is a no-op, not an error: animations come and go
// independently of the machine that references them. rng drives the random
// pick for ActionEnableRandom; nil falls back to the package-level source.
func (a StateAction) Apply(animations *animation.AnimationContainer, rng *rand.Rand) {
	switch a.Kind {
	case ActionNone:
	case ActionRewind:
		if anim, ok := animations.TryGet(a.Animation); ok {
			anim.Rewind()
		}
	case ActionEnable:
		if anim, ok := animations.TryGet(a.Animation); ok {
			anim.SetEnabled(true)
		}
	case ActionDisable:
		if anim, ok := animations.TryGet(a.Animation); ok {
			anim.SetEnabled(false)
		}
	case ActionEnableRandom:
		if len(a.Animations) == 0 {
			return
		}
		var i int
		if rng != nil {
			i = rng.Intn(len(a.Animations))
		} else {
			i = rand.Intn(len(a.Animations))
		}
		if anim, ok := animations.TryGet(a.Animations[i]); ok {
			anim.SetEnabled(true)
		}
	}
}
