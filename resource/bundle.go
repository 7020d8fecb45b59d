package resource

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/pool"
	"github.com/milk9111/rig/scene"
)

// bundleFile is the on-disk shape of a model bundle.
type bundleFile struct {
	Nodes      []nodeSpec      `yaml:"nodes"`
	Animations []animationSpec `yaml:"animations"`
}

type nodeSpec struct {
	Name     string    `yaml:"name"`
	Parent   string    `yaml:"parent,omitempty"`
	Position []float32 `yaml:"position,omitempty"`
	Rotation []float32 `yaml:"rotation,omitempty"` // x, y, z, w
	Scale    []float32 `yaml:"scale,omitempty"`
}

type animationSpec struct {
	Name   string      `yaml:"name,omitempty"`
	Length float32     `yaml:"length,omitempty"`
	Tracks []trackSpec `yaml:"tracks"`
}

type trackSpec struct {
	Node string    `yaml:"node"`
	Keys []keySpec `yaml:"keys"`
}

type keySpec struct {
	Time     float32   `yaml:"time"`
	Position []float32 `yaml:"position,omitempty"`
	Scale    []float32 `yaml:"scale,omitempty"`
	Rotation []float32 `yaml:"rotation,omitempty"` // x, y, z, w
}

// LoadModel reads a YAML model bundle from disk.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read bundle: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes a YAML model bundle.
func ParseModel(data []byte) (*Model, error) {
	var file bundleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("resource: decode bundle: %w", err)
	}

	g := scene.NewGraph()
	handles := make(map[string]pool.Handle, len(file.Nodes))
	for _, spec := range file.Nodes {
		if spec.Name == "" {
			return nil, fmt.Errorf("resource: bundle node without a name")
		}
		if _, ok := handles[spec.Name]; ok {
			return nil, fmt.Errorf("resource: duplicate node name %q", spec.Name)
		}
		n := scene.NewNode(spec.Name)
		n.SetLocalTransform(vec3(spec.Position, mgl32.Vec3{}), quat(spec.Rotation), vec3(spec.Scale, mgl32.Vec3{1, 1, 1}))
		handles[spec.Name] = g.AddNode(n)
	}
	for _, spec := range file.Nodes {
		if spec.Parent == "" {
			continue
		}
		parent, ok := handles[spec.Parent]
		if !ok {
			return nil, fmt.Errorf("resource: node %q has unknown parent %q", spec.Name, spec.Parent)
		}
		g.LinkNodes(parent, handles[spec.Name])
	}

	m := &Model{Graph: g}
	for _, as := range file.Animations {
		anim := animation.NewAnimation()
		for _, ts := range as.Tracks {
			node, ok := handles[ts.Node]
			if !ok {
				return nil, fmt.Errorf("resource: track bound to unknown node %q", ts.Node)
			}
			track := animation.NewTrack()
			track.SetNode(node)
			frames := make([]animation.KeyFrame, 0, len(ts.Keys))
			for _, ks := range ts.Keys {
				frames = append(frames, animation.KeyFrame{
					Time:     ks.Time,
					Position: vec3(ks.Position, mgl32.Vec3{}),
					Scale:    vec3(ks.Scale, mgl32.Vec3{1, 1, 1}),
					Rotation: quat(ks.Rotation),
				})
			}
			track.SetKeyFrames(frames)
			anim.AddTrack(track)
		}
		m.Animations = append(m.Animations, anim)
	}
	return m, nil
}

func vec3(v []float32, def mgl32.Vec3) mgl32.Vec3 {
	if len(v) != 3 {
		return def
	}
	return mgl32.Vec3{v[0], v[1], v[2]}
}

func quat(v []float32) mgl32.Quat {
	if len(v) != 4 {
		return mgl32.QuatIdent()
	}
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}
