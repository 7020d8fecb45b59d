// rigview is a debug viewer: it loads a model bundle, instantiates its first
// animation onto a copy of the bundle's node hierarchy and draws the
// animated joints each frame.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/pool"
	"github.com/milk9111/rig/resource"
	"github.com/milk9111/rig/scene"
)

const (
	screenW = 800
	screenH = 600
	zoom    = 80
)

type viewer struct {
	graph      *scene.Graph
	animations *animation.AnimationContainer
	handle     pool.Handle
	watcher    *resource.Watcher
}

func newViewer(bundlePath, watchDir string) (*viewer, error) {
	store := resource.NewStore()
	model, err := store.Load(bundlePath)
	if err != nil {
		return nil, err
	}

	// Build a viewer-side copy of the hierarchy, then retarget the bundle's
	// animation onto it the same way a game scene would.
	graph := rebuildGraph(model)

	anim := model.Instantiate(graph)
	animations := animation.NewAnimationContainer()
	handle := animations.Add(anim)
	animations.Resolve(graph)

	v := &viewer{
		graph:      graph,
		animations: animations,
		handle:     handle,
	}
	if watchDir != "" {
		w, err := resource.NewWatcher(store, watchDir)
		if err != nil {
			return nil, err
		}
		v.watcher = w
	}
	return v, nil
}

// rebuildGraph clones the bundle hierarchy into a fresh graph with new
// handles, simulating instantiation into a scene.
func rebuildGraph(model *resource.SharedModel) *scene.Graph {
	model.Lock()
	defer model.Unlock()

	src := model.RefGraph()
	g := scene.NewGraph()
	mapping := make(map[pool.Handle]pool.Handle)
	src.ForEach(func(h pool.Handle, n *scene.Node) {
		copied := scene.NewNode(n.Name())
		copied.SetLocalTransform(n.LocalPosition(), n.LocalRotation(), n.LocalScale())
		mapping[h] = g.AddNode(copied)
	})
	src.ForEach(func(h pool.Handle, n *scene.Node) {
		for _, child := range n.Children() {
			g.LinkNodes(mapping[h], mapping[child])
		}
	})
	return g
}

func (v *viewer) Update() error {
	v.animations.UpdateAnimations(float32(1.0 / ebiten.ActualTPS()))
	if anim := v.animations.Get(v.handle); anim != nil {
		anim.Pose().Apply(v.graph)
		for {
			ev, ok := anim.PopEvent()
			if !ok {
				break
			}
			log.Printf("rigview: signal %d fired", ev.SignalID)
		}
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	v.graph.ForEach(func(_ pool.Handle, n *scene.Node) {
		x, y := project(n)
		if parent := v.graph.Node(n.Parent()); parent != nil {
			px, py := project(parent)
			vector.StrokeLine(screen, px, py, x, y, 1, color.RGBA{90, 90, 110, 255}, true)
		}
		vector.DrawFilledCircle(screen, x, y, 3, color.RGBA{240, 200, 60, 255}, true)
	})

	if anim := v.animations.Get(v.handle); anim != nil {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("t=%.2f / %.2f", anim.TimePosition(), anim.Length()))
	}
}

func project(n *scene.Node) (float32, float32) {
	p := n.LocalPosition()
	return screenW/2 + p.X()*zoom, screenH/2 - p.Y()*zoom
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	bundle := flag.String("bundle", "testdata/walk.yaml", "model bundle to load")
	watch := flag.String("watch", "", "directory to watch for bundle hot reload")
	flag.Parse()

	v, err := newViewer(*bundle, *watch)
	if err != nil {
		log.Fatal(err)
	}
	if v.watcher != nil {
		defer v.watcher.Close()
	}

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("rigview")
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
