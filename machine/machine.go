package machine

import (
	"math/rand"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/common"
	"github.com/milk9111/rig/pool"
)

// Transition connects two states. It fires when its rule parameter is true
// while the source state is active, then crossfades to the destination over
// BlendTime seconds.
type Transition struct {
	Name      string      `yaml:"name"`
	Source    pool.Handle `yaml:"source"`
	Dest      pool.Handle `yaml:"dest"`
	Rule      string      `yaml:"rule"`
	BlendTime float32     `yaml:"blend_time"`
}

// Machine owns states, transitions and pose nodes, and produces one blended
// pose per frame. Entering and leaving states runs their action lists
// against the animation container.
type Machine struct {
	nodes       pool.Pool[PoseNode]
	states      pool.Pool[*State]
	transitions pool.Pool[Transition]
	params      *Parameters

	active           pool.Handle
	activeTransition pool.Handle
	blendPos         float32

	finalPose animation.AnimationPose
	rng       *rand.Rand
}

// NewMachine creates an empty machine.
func NewMachine() *Machine {
	return &Machine{params: NewParameters()}
}

// AddNode stores a pose node and returns its handle.
func (m *Machine) AddNode(n PoseNode) pool.Handle {
	return m.nodes.Spawn(n)
}

// Nodes returns the pose node pool.
func (m *Machine) Nodes() *pool.Pool[PoseNode] {
	return &m.nodes
}

// AddState stores a state and returns its handle.
func (m *Machine) AddState(s *State) pool.Handle {
	return m.states.Spawn(s)
}

// State returns the state behind h, or nil.
func (m *Machine) State(h pool.Handle) *State {
	if p, ok := m.states.TryBorrow(h); ok {
		return *p
	}
	return nil
}

// AddTransition stores a transition and returns its handle.
func (m *Machine) AddTransition(t Transition) pool.Handle {
	return m.transitions.Spawn(t)
}

// Parameters returns the machine's parameter set.
func (m *Machine) Parameters() *Parameters {
	return m.params
}

// SetRand sets the random source used by enable-random state actions.
// Tests supply a seeded source for reproducible picks.
func (m *Machine) SetRand(rng *rand.Rand) {
	m.rng = rng
}

// ActiveState returns the handle of the currently active state.
func (m *Machine) ActiveState() pool.Handle {
	return m.active
}

// SetEntryState activates a state without a transition. Enter actions run;
// there is no previous state to leave on the first activation.
func (m *Machine) SetEntryState(h pool.Handle, animations *animation.AnimationContainer) {
	if m.active.Valid() {
		m.leaveState(m.active, animations)
	}
	m.active = h
	m.enterState(h, animations)
}

func (m *Machine) enterState(h pool.Handle, animations *animation.AnimationContainer) {
	if s := m.State(h); s != nil {
		for _, action := range s.OnEnterActions {
			action.Apply(animations, m.rng)
		}
	}
}

func (m *Machine) leaveState(h pool.Handle, animations *animation.AnimationContainer) {
	if s := m.State(h); s != nil {
		for _, action := range s.OnLeaveActions {
			action.Apply(animations, m.rng)
		}
	}
}

// Update advances the machine one frame and returns the blended pose.
// Outside a transition this is the active state's pose; during one it is a
// crossfade from source to destination.
func (m *Machine) Update(animations *animation.AnimationContainer, dt float32) *animation.AnimationPose {
	if !m.activeTransition.Valid() {
		m.startPendingTransition(animations)
	}

	if t, ok := m.transitions.TryBorrow(m.activeTransition); ok {
		m.blendPos += dt
		k := float32(1)
		if t.BlendTime > 0 {
			k = common.Clamp(m.blendPos/t.BlendTime, 0, 1)
		}

		src := m.State(t.Source)
		dst := m.State(t.Dest)
		if src != nil {
			src.Update(&m.nodes, m.params, animations, dt)
		}
		if dst != nil {
			dst.Update(&m.nodes, m.params, animations, dt)
		}

		m.finalPose.Reset()
		if src != nil {
			m.finalPose.BlendWith(src.Pose(&m.nodes), 1-k)
		}
		if dst != nil {
			m.finalPose.BlendWith(dst.Pose(&m.nodes), k)
		}

		if k >= 1 {
			m.active = t.Dest
			m.activeTransition = pool.None
			m.blendPos = 0
		}
		return &m.finalPose
	}

	if s := m.State(m.active); s != nil {
		s.Update(&m.nodes, m.params, animations, dt)
		if pose := s.Pose(&m.nodes); pose != nil {
			pose.CloneInto(&m.finalPose)
		} else {
			m.finalPose.Reset()
		}
	} else {
		m.finalPose.Reset()
	}
	return &m.finalPose
}

// startPendingTransition begins the first transition out of the active
// state whose rule is set. Leave actions of the source run before enter
// actions of the destination.
func (m *Machine) startPendingTransition(animations *animation.AnimationContainer) {
	started := pool.None
	m.transitions.ForEach(func(h pool.Handle, t *Transition) {
		if started != pool.None {
			return
		}
		if t.Source == m.active && m.params.Rule(t.Rule) {
			started = h
		}
	})
	if started == pool.None {
		return
	}
	t := m.transitions.Borrow(started)
	m.leaveState(t.Source, animations)
	m.enterState(t.Dest, animations)
	m.activeTransition = started
	m.blendPos = 0
}

// Pose returns the machine's last blended pose.
func (m *Machine) Pose() *animation.AnimationPose {
	return &m.finalPose
}
