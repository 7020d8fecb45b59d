package animation

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/rig/pool"
	"github.com/milk9111/rig/scene"
)

// LocalPose is one node's resolved local transform at an instant.
type LocalPose struct {
	Node     pool.Handle
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
}

// NewLocalPose creates an identity pose for the given node.
func NewLocalPose(node pool.Handle) LocalPose {
	return LocalPose{
		Node:     node,
		Scale:    mgl32.Vec3{1, 1, 1},
		Rotation: mgl32.QuatIdent(),
	}
}

// weightedClone scales the pose as if it were blended against an implicit
// identity pose. Scale blending is not implemented; the clone keeps unit
// scale.
func (p LocalPose) weightedClone(weight float32) LocalPose {
	return LocalPose{
		Node:     p.Node,
		Position: p.Position.Mul(weight),
		Rotation: mgl32.QuatNlerp(mgl32.QuatIdent(), p.Rotation, weight),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// BlendWith accumulates other into p with the given weight. Scale blending
// is not implemented; scale is left untouched.
func (p *LocalPose) BlendWith(other LocalPose, weight float32) {
	p.Position = p.Position.Add(other.Position.Mul(weight))
	p.Rotation = mgl32.QuatNlerp(p.Rotation, other.Rotation, weight)
}

// AnimationPose maps scene nodes to their resolved local poses for one
// animation at one instant. It is reset and refilled every tick.
type AnimationPose struct {
	localPoses map[pool.Handle]LocalPose
}

// CloneInto resets dest and copies every local pose into it.
func (p *AnimationPose) CloneInto(dest *AnimationPose) {
	dest.Reset()
	for node, lp := range p.localPoses {
		dest.addLocalPose(lp, node)
	}
}

// BlendWith blends other into p with the given weight. Nodes already present
// blend in place; nodes only present in other are inserted pre-scaled by the
// weight, simulating a blend against an implicit identity pose. The
// asymmetry is how blend trees combine partially overlapping skeleton masks.
func (p *AnimationPose) BlendWith(other *AnimationPose, weight float32) {
	if other == nil {
		return
	}
	for node, otherPose := range other.localPoses {
		if current, ok := p.localPoses[node]; ok {
			current.BlendWith(otherPose, weight)
			p.localPoses[node] = current
		} else {
			p.addLocalPose(otherPose.weightedClone(weight), node)
		}
	}
}

func (p *AnimationPose) addLocalPose(lp LocalPose, node pool.Handle) {
	if p.localPoses == nil {
		p.localPoses = make(map[pool.Handle]LocalPose)
	}
	p.localPoses[node] = lp
}

// Reset drops every local pose.
func (p *AnimationPose) Reset() {
	clear(p.localPoses)
}

// Len returns the number of local poses.
func (p *AnimationPose) Len() int {
	return len(p.localPoses)
}

// LocalPose returns the pose stored for node, if any.
func (p *AnimationPose) LocalPose(node pool.Handle) (LocalPose, bool) {
	lp, ok := p.localPoses[node]
	return lp, ok
}

// ForEach visits every (node, local pose) pair.
func (p *AnimationPose) ForEach(fn func(pool.Handle, LocalPose)) {
	for node, lp := range p.localPoses {
		fn(node, lp)
	}
}

// Apply writes every local pose into the corresponding node's local
// transform. A pose whose node no longer exists is logged and skipped;
// the remaining entries are still applied.
func (p *AnimationPose) Apply(g *scene.Graph) {
	for handle, lp := range p.localPoses {
		node := g.Node(handle)
		if node == nil {
			log.Printf("animation: pose targets missing node %v, retargetting likely failed", handle)
			continue
		}
		node.SetLocalTransform(lp.Position, lp.Rotation, lp.Scale)
	}
}
