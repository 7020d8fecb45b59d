// Package script exposes the animation container to tengo gameplay scripts.
// A script defines an update(engine, state, dt) function; the engine map
// lets it pop animation events and drive playback, and the state map
// persists values between frames.
package script

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/rig/animation"
	"github.com/milk9111/rig/pool"
)

const dispatchScript = `
update(__engine, __state, __dt)
`

// Runtime is a compiled script driven once per frame.
type Runtime struct {
	compiled *tengo.Compiled
	state    *tengo.Map
}

// NewRuntime compiles src. The script must define update(engine, state, dt).
func NewRuntime(src []byte) (*Runtime, error) {
	full := string(src) + "\n" + dispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})
	_ = s.Add("__dt", 0.0)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}
	return &Runtime{
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

// Update runs the script's update function against the container.
func (r *Runtime) Update(c *animation.AnimationContainer, dt float32) error {
	if r == nil || r.compiled == nil {
		return fmt.Errorf("script: nil runtime")
	}
	if err := r.compiled.Set("__engine", buildEngine(c)); err != nil {
		return err
	}
	if err := r.compiled.Set("__state", r.state); err != nil {
		return err
	}
	if err := r.compiled.Set("__dt", float64(dt)); err != nil {
		return err
	}
	return r.compiled.Run()
}

func buildEngine(c *animation.AnimationContainer) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	handleArg := func(args []tengo.Object) (pool.Handle, bool) {
		if len(args) < 1 {
			return pool.None, false
		}
		i, ok := tengo.ToInt64(args[0])
		if !ok {
			return pool.None, false
		}
		return pool.Handle(uint64(i)), true
	}

	values["handles"] = &tengo.UserFunction{Name: "handles", Value: func(args ...tengo.Object) (tengo.Object, error) {
		out := &tengo.Array{}
		c.ForEach(func(h pool.Handle, _ *animation.Animation) {
			out.Value = append(out.Value, &tengo.Int{Value: int64(h)})
		})
		return out, nil
	}}

	values["enable"] = &tengo.UserFunction{Name: "enable", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h, ok := handleArg(args); ok {
			if a, found := c.TryGet(h); found {
				a.SetEnabled(true)
				return tengo.TrueValue, nil
			}
		}
		return tengo.FalseValue, nil
	}}

	values["disable"] = &tengo.UserFunction{Name: "disable", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h, ok := handleArg(args); ok {
			if a, found := c.TryGet(h); found {
				a.SetEnabled(false)
				return tengo.TrueValue, nil
			}
		}
		return tengo.FalseValue, nil
	}}

	values["rewind"] = &tengo.UserFunction{Name: "rewind", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h, ok := handleArg(args); ok {
			if a, found := c.TryGet(h); found {
				a.Rewind()
				return tengo.TrueValue, nil
			}
		}
		return tengo.FalseValue, nil
	}}

	values["set_speed"] = &tengo.UserFunction{Name: "set_speed", Value: func(args ...tengo.Object) (tengo.Object, error) {
		h, ok := handleArg(args)
		if !ok || len(args) < 2 {
			return tengo.FalseValue, nil
		}
		speed, ok := tengo.ToFloat64(args[1])
		if !ok {
			return tengo.FalseValue, nil
		}
		if a, found := c.TryGet(h); found {
			a.SetSpeed(float32(speed))
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["time_position"] = &tengo.UserFunction{Name: "time_position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h, ok := handleArg(args); ok {
			if a, found := c.TryGet(h); found {
				return &tengo.Float{Value: float64(a.TimePosition())}, nil
			}
		}
		return tengo.UndefinedValue, nil
	}}

	values["has_ended"] = &tengo.UserFunction{Name: "has_ended", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h, ok := handleArg(args); ok {
			if a, found := c.TryGet(h); found && a.HasEnded() {
				return tengo.TrueValue, nil
			}
		}
		return tengo.FalseValue, nil
	}}

	// pop_event consumes and returns the oldest signal id queued on the
	// animation, or undefined when the queue is empty.
	values["pop_event"] = &tengo.UserFunction{Name: "pop_event", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h, ok := handleArg(args); ok {
			if a, found := c.TryGet(h); found {
				if ev, ok := a.PopEvent(); ok {
					return &tengo.Int{Value: int64(ev.SignalID)}, nil
				}
			}
		}
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
