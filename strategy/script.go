package strategy

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"roachrace/game"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// SCRIPT_ENTRY is the Lua function a script must define:
//
//	function move(self, world) return {vx, vy} end
//
// self carries index, strategy, x, y, vx, vy. world carries length, width
// and count. The result may also use the keys vx and vy.
const SCRIPT_ENTRY = "move"

// SCRIPT_TIMEOUT bounds a single call to a script's entry function.
const SCRIPT_TIMEOUT = 100 * time.Millisecond

// Script is a strategy written in Lua. Every instance owns its own
// interpreter, so instances must be closed once the race is over.
type Script struct {
	name  string
	agent int
	state *lua.LState
	entry lua.LValue
}

// CompileScript parses and compiles source once so that it can be
// instantiated for many cockroaches.
func CompileScript(name, source string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile script %s: %w", name, err)
	}
	return proto, nil
}

// NewScript loads a compiled script into a fresh interpreter.
func NewScript(name string, proto *lua.FunctionProto, agent int) (*Script, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.MathLibName, lua.OpenMath},
		{lua.TabLibName, lua.OpenTable},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	// Scripts must not reach the filesystem
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}
	entry := L.GetGlobal(SCRIPT_ENTRY)
	if entry.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("script %s does not define function %s", name, SCRIPT_ENTRY)
	}

	return &Script{name: name, agent: agent, state: L, entry: entry}, nil
}

func (s *Script) Move(self game.Cockroach, world *game.World) game.Move {
	L := s.state
	me := L.NewTable()
	me.RawSetString("index", lua.LNumber(s.agent))
	me.RawSetString("strategy", lua.LString(self.StrategyName))
	me.RawSetString("x", lua.LNumber(self.State.Position.X))
	me.RawSetString("y", lua.LNumber(self.State.Position.Y))
	me.RawSetString("vx", lua.LNumber(self.State.Velocity.X))
	me.RawSetString("vy", lua.LNumber(self.State.Velocity.Y))

	w := L.NewTable()
	w.RawSetString("length", lua.LNumber(world.Length()))
	w.RawSetString("width", lua.LNumber(world.Width()))
	w.RawSetString("count", lua.LNumber(world.Len()))

	ctx, cancel := context.WithTimeout(context.Background(), SCRIPT_TIMEOUT)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	if err := L.CallByParam(lua.P{Fn: s.entry, NRet: 1, Protect: true}, me, w); err != nil {
		log.Warn().Err(err).Msgf("script %s failed for cockroach %d, standing still", s.name, s.agent)
		return game.Move{}
	}
	ret := L.Get(-1)
	L.Pop(1)

	speed, ok := toVec(ret)
	if !ok {
		log.Warn().Msgf("script %s returned %s for cockroach %d, expected a table", s.name, ret.Type().String(), s.agent)
		return game.Move{}
	}
	return game.Move{Speed: speed}
}

func (s *Script) Close() error {
	s.state.Close()
	return nil
}

func toVec(v lua.LValue) (game.Vec2, bool) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return game.Vec2{}, false
	}
	x, y := tbl.RawGetString("vx"), tbl.RawGetString("vy")
	if x == lua.LNil && y == lua.LNil {
		x, y = tbl.RawGetInt(1), tbl.RawGetInt(2)
	}
	return game.Vec2{X: finite(lua.LVAsNumber(x)), Y: finite(lua.LVAsNumber(y))}, true
}

// finite maps NaN and infinities to 0.
func finite(n lua.LNumber) float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// RegisterScript compiles source and registers it under name. The script
// is checked once here so that a broken script fails at setup instead of
// during a race.
func (r *Registry) RegisterScript(name, source string) error {
	proto, err := CompileScript(name, source)
	if err != nil {
		return err
	}
	check, err := NewScript(name, proto, 0)
	if err != nil {
		return err
	}
	check.Close()

	r.Register(name, func(agent int) game.Strategy {
		s, err := NewScript(name, proto, agent)
		if err != nil {
			// Only reachable if the script depends on global state
			log.Error().Err(err).Msgf("falling back to %T for cockroach %d", DefaultStrategy{}, agent)
			return DefaultStrategy{}
		}
		return s
	})
	return nil
}

// LoadScripts registers every *.lua file in dir under its file name without extension.
func (r *Registry) LoadScripts(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts in %s: %w", dir, err)
	}
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := r.RegisterScript(name, string(source)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
