package command

import (
	"fmt"
	"strings"

	"github.com/richinsley/goglitch/logger"
	lua "github.com/yuin/gopher-lua"
)

// run executes a Lua script. The script drives the interpreter through
// command(line), which returns true when the command asked for a rerun, and
// print(...), which writes to the console. With an Apply hook each command's
// result is applied as it returns; without one the result merges the flags
// of every command the script ran.
func (in *Interpreter) run(path string) Result {
	if path == "" {
		in.out.AddOutput("Usage: run <file.lua>")
		return redrawOnly
	}
	if in.depth >= maxScriptDepth {
		in.out.AddOutput("Scripts nested too deeply.")
		return redrawOnly
	}

	L := lua.NewState()
	defer L.Close()

	acc := redrawOnly
	L.SetGlobal("command", L.NewFunction(func(L *lua.LState) int {
		line := L.CheckString(1)
		in.depth++
		res := in.Execute(line)
		in.depth--
		if in.cfg.Apply != nil {
			in.cfg.Apply(res)
		} else {
			acc = acc.Or(res)
		}
		L.Push(lua.LBool(res.Rerun))
		return 1
	}))
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		in.out.AddOutput(strings.Join(parts, "\t"))
		return 0
	}))

	if err := L.DoFile(path); err != nil {
		logger.Warn("script %s failed: %v", path, err)
		msg, _, _ := strings.Cut(strings.TrimSpace(err.Error()), "\n")
		in.out.AddOutput(fmt.Sprintf("Script %s failed: %s", path, msg))
		return acc
	}
	return acc
}
