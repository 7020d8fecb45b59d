package machine

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/pool"
)

// PoseNode evaluates a pose for a state. The blend tree behind a state is
// external to this package; the machine only drives evaluation and reads
// the result back.
type PoseNode interface {
	// EvalPose recomputes and returns the node's pose for this frame.
	EvalPose(nodes *pool.Pool[PoseNode], params *Parameters, animations *animation.AnimationContainer, dt float32) *animation.AnimationPose

	// Pose returns the pose computed by the last EvalPose call.
	Pose() *animation.AnimationPose
}

// Parameters holds the named values transition rules and blend nodes read.
type Parameters struct {
	rules   map[string]bool
	weights map[string]float32
}

// NewParameters creates an empty parameter set.
func NewParameters() *Parameters {
	return &Parameters{
		rules:   make(map[string]bool),
		weights: make(map[string]float32),
	}
}

// SetRule sets a boolean transition rule.
func (p *Parameters) SetRule(name string, v bool) {
	if p == nil {
		return
	}
	p.rules[name] = v
}

// Rule returns the named rule, false if unset.
func (p *Parameters) Rule(name string) bool {
	if p == nil {
		return false
	}
	return p.rules[name]
}

// SetWeight sets a blend weight parameter.
func (p *Parameters) SetWeight(name string, v float32) {
	if p == nil {
		return
	}
	p.weights[name] = v
}

// Weight returns the named weight, 0 if unset.
func (p *Parameters) Weight(name string) float32 {
	if p == nil {
		return 0
	}
	return p.weights[name]
}

// State wraps a pose node root with the actions to run when the machine
// enters or leaves it.
type State struct {
	// Position on the editor canvas. Editor metadata only.
	Position mgl32.Vec2 `yaml:"position"`

	// Name of the state.
	Name string `yaml:"name"`

	// OnEnterActions run in order when the machine enters this state.
	OnEnterActions []StateAction `yaml:"on_enter_actions,omitempty"`

	// OnLeaveActions run in order when the machine leaves this state.
	OnLeaveActions []StateAction `yaml:"on_leave_actions,omitempty"`

	// Root is the pose node that provides this state's animation data.
	Root pool.Handle `yaml:"root"`
}

// NewState creates a state backed by the given pose node.
func NewState(name string, root pool.Handle) *State {
	return &State{
		Name: name,
		Root: root,
	}
}

// Pose returns the state's final pose, or nil if the root handle is invalid.
func (s *State) Pose(nodes *pool.Pool[PoseNode]) *animation.AnimationPose {
	if root, ok := nodes.TryBorrow(s.Root); ok {
		return (*root).Pose()
	}
	return nil
}

// Update asks the root pose node to evaluate for this frame.
func (s *State) Update(nodes *pool.Pool[PoseNode], params *Parameters, animations *animation.AnimationContainer, dt float32) {
	if root, ok := nodes.TryBorrow(s.Root); ok {
		(*root).EvalPose(nodes, params, animations, dt)
	}
}
