package machine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/pool"
	"github.com/milk9111/rig/scene"
)

const eps = 1e-4

func floatEq(a, b float32) bool {
	return float32(math.Abs(float64(a-b))) < eps
}

// playNode is a minimal pose node: it exposes the pose of one animation in
// the container.
type playNode struct {
	animations *animation.AnimationContainer
	anim       pool.Handle
}

func (n *playNode) EvalPose(nodes *pool.Pool[PoseNode], params *Parameters, animations *animation.AnimationContainer, dt float32) *animation.AnimationPose {
	return n.Pose()
}

func (n *playNode) Pose() *animation.AnimationPose {
	if a, ok := n.animations.TryGet(n.anim); ok {
		return a.Pose()
	}
	return nil
}

// animAt builds a single-frame animation posing node at x and adds it to the
// container.
func animAt(c *animation.AnimationContainer, node pool.Handle, x float32) pool.Handle {
	track := animation.NewTrack()
	track.SetNode(node)
	track.SetKeyFrames([]animation.KeyFrame{
		animation.NewKeyFrame(0, mgl32.Vec3{x, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.QuatIdent()),
	})
	a := animation.NewAnimation()
	a.AddTrack(track)
	return c.Add(a)
}

func TestStateActionApply(t *testing.T) {
	t.Run("rewind", func(t *testing.T) {
		c := animation.NewAnimationContainer()
		a := animation.NewAnimation()
		a.AddTrack(trackOfLength(10))
		h := c.Add(a)
		a.SetTimePosition(6)

		RewindAnimation(h).Apply(c, nil)
		if a.TimePosition() != 0 {
			t.Fatalf("expected rewind to 0, got %v", a.TimePosition())
		}
	})

	t.Run("enable_disable", func(t *testing.T) {
		c := animation.NewAnimationContainer()
		a := animation.NewAnimation()
		h := c.Add(a)

		DisableAnimation(h).Apply(c, nil)
		if a.Enabled() {
			t.Fatalf("expected disabled")
		}
		EnableAnimation(h).Apply(c, nil)
		if !a.Enabled() {
			t.Fatalf("expected enabled")
		}
	})

	t.Run("stale_handle_is_noop", func(t *testing.T) {
		c := animation.NewAnimationContainer()
		h := c.Add(animation.NewAnimation())
		c.Remove(h)

		// Must not panic or error.
		RewindAnimation(h).Apply(c, nil)
		EnableAnimation(h).Apply(c, nil)
		DisableAnimation(h).Apply(c, nil)
	})

	t.Run("enable_random_picks_one", func(t *testing.T) {
		c := animation.NewAnimationContainer()
		var handles []pool.Handle
		var anims []*animation.Animation
		for i := 0; i < 3; i++ {
			a := animation.NewAnimation()
			a.SetEnabled(false)
			handles = append(handles, c.Add(a))
			anims = append(anims, a)
		}

		EnableRandomAnimation(handles...).Apply(c, rand.New(rand.NewSource(1)))

		enabled := 0
		for _, a := range anims {
			if a.Enabled() {
				enabled++
			}
		}
		if enabled != 1 {
			t.Fatalf("expected exactly one animation enabled, got %d", enabled)
		}
	})

	t.Run("enable_random_empty_list", func(t *testing.T) {
		c := animation.NewAnimationContainer()
		EnableRandomAnimation().Apply(c, nil)
	})
}

func trackOfLength(maxTime float32) *animation.Track {
	track := animation.NewTrack()
	track.SetKeyFrames([]animation.KeyFrame{
		animation.NewKeyFrame(0, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.QuatIdent()),
		animation.NewKeyFrame(maxTime, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.QuatIdent()),
	})
	return track
}

func TestStatePoseInvalidRoot(t *testing.T) {
	var nodes pool.Pool[PoseNode]
	s := NewState("broken", pool.None)
	if s.Pose(&nodes) != nil {
		t.Fatalf("expected nil pose for invalid root")
	}
}

func TestMachineEntryStateActions(t *testing.T) {
	c := animation.NewAnimationContainer()
	a := animation.NewAnimation()
	a.AddTrack(trackOfLength(10))
	h := c.Add(a)
	a.SetTimePosition(5)

	m := NewMachine()
	node := m.AddNode(&playNode{animations: c, anim: h})
	s := NewState("idle", node)
	s.OnEnterActions = []StateAction{RewindAnimation(h), EnableAnimation(h)}
	sh := m.AddState(s)

	m.SetEntryState(sh, c)

	if m.ActiveState() != sh {
		t.Fatalf("expected entry state active")
	}
	if a.TimePosition() != 0 {
		t.Fatalf("enter actions should have rewound the animation, got t=%v", a.TimePosition())
	}
}

func TestMachineTransitionRunsLeaveThenEnter(t *testing.T) {
	c := animation.NewAnimationContainer()
	a := animation.NewAnimation()
	h := c.Add(a)

	g := scene.NewGraph()
	bone := g.AddNode(scene.NewNode("bone"))

	m := NewMachine()
	srcNode := m.AddNode(&playNode{animations: c, anim: animAt(c, bone, 0)})
	dstNode := m.AddNode(&playNode{animations: c, anim: animAt(c, bone, 2)})

	src := NewState("idle", srcNode)
	src.OnLeaveActions = []StateAction{EnableAnimation(h)}
	dst := NewState("walk", dstNode)
	dst.OnEnterActions = []StateAction{DisableAnimation(h)}

	srcH := m.AddState(src)
	dstH := m.AddState(dst)
	m.AddTransition(Transition{Name: "idle->walk", Source: srcH, Dest: dstH, Rule: "walk", BlendTime: 1})

	a.SetEnabled(true)
	m.SetEntryState(srcH, c)
	m.Parameters().SetRule("walk", true)
	m.Update(c, 0.1)

	// Leave enabled it, enter disabled it afterwards: disabled wins.
	if a.Enabled() {
		t.Fatalf("dest enter actions must run after source leave actions")
	}
}

func TestMachineCrossfade(t *testing.T) {
	c := animation.NewAnimationContainer()
	g := scene.NewGraph()
	bone := g.AddNode(scene.NewNode("bone"))

	m := NewMachine()
	srcAnim := animAt(c, bone, 0)
	dstAnim := animAt(c, bone, 2)
	srcNode := m.AddNode(&playNode{animations: c, anim: srcAnim})
	dstNode := m.AddNode(&playNode{animations: c, anim: dstAnim})

	srcH := m.AddState(NewState("idle", srcNode))
	dstH := m.AddState(NewState("walk", dstNode))
	m.AddTransition(Transition{Name: "idle->walk", Source: srcH, Dest: dstH, Rule: "walk", BlendTime: 1})

	m.SetEntryState(srcH, c)
	c.UpdateAnimations(0) // compute the animations' poses once

	// Rule unset: machine stays on the source pose.
	pose := m.Update(c, 0.5)
	if lp, ok := pose.LocalPose(bone); !ok || !floatEq(lp.Position.X(), 0) {
		t.Fatalf("expected source pose before transition, got %v ok=%v", lp, ok)
	}

	// Fire the transition and step to the blend midpoint.
	m.Parameters().SetRule("walk", true)
	pose = m.Update(c, 0.5)
	lp, ok := pose.LocalPose(bone)
	if !ok {
		t.Fatalf("expected blended pose for bone")
	}
	if !floatEq(lp.Position.X(), 1) {
		t.Fatalf("expected crossfade midpoint x=1, got %v", lp.Position.X())
	}
	if m.ActiveState() != srcH {
		t.Fatalf("source should stay active until the blend completes")
	}

	// Step past the end of the blend: destination becomes active.
	pose = m.Update(c, 0.5)
	if lp, ok := pose.LocalPose(bone); !ok || !floatEq(lp.Position.X(), 2) {
		t.Fatalf("expected destination pose at blend end, got %v ok=%v", lp, ok)
	}
	if m.ActiveState() != dstH {
		t.Fatalf("destination should be active after the blend")
	}
}

func TestMachineZeroBlendTimeSwitchesImmediately(t *testing.T) {
	c := animation.NewAnimationContainer()
	g := scene.NewGraph()
	bone := g.AddNode(scene.NewNode("bone"))

	m := NewMachine()
	srcNode := m.AddNode(&playNode{animations: c, anim: animAt(c, bone, 0)})
	dstNode := m.AddNode(&playNode{animations: c, anim: animAt(c, bone, 2)})
	srcH := m.AddState(NewState("idle", srcNode))
	dstH := m.AddState(NewState("walk", dstNode))
	m.AddTransition(Transition{Source: srcH, Dest: dstH, Rule: "walk"})

	m.SetEntryState(srcH, c)
	c.UpdateAnimations(0)
	m.Parameters().SetRule("walk", true)

	pose := m.Update(c, 0.1)
	if lp, ok := pose.LocalPose(bone); !ok || !floatEq(lp.Position.X(), 2) {
		t.Fatalf("expected immediate switch to destination pose, got %v ok=%v", lp, ok)
	}
	if m.ActiveState() != dstH {
		t.Fatalf("destination should be active immediately")
	}
}

func TestMachineWithoutActiveState(t *testing.T) {
	c := animation.NewAnimationContainer()
	m := NewMachine()
	pose := m.Update(c, 0.1)
	if pose.Len() != 0 {
		t.Fatalf("expected empty pose without an active state")
	}
}

func TestParameters(t *testing.T) {
	p := NewParameters()
	if p.Rule("jump") {
		t.Fatalf("unset rule must be false")
	}
	p.SetRule("jump", true)
	if !p.Rule("jump") {
		t.Fatalf("expected rule set")
	}

	if p.Weight("lean") != 0 {
		t.Fatalf("unset weight must be 0")
	}
	p.SetWeight("lean", 0.25)
	if !floatEq(p.Weight("lean"), 0.25) {
		t.Fatalf("expected weight 0.25, got %v", p.Weight("lean"))
	}

	var nilParams *Parameters
	nilParams.SetRule("x", true) // nil receiver is safe
	if nilParams.Rule("x") {
		t.Fatalf("nil parameters must report false")
	}
}
