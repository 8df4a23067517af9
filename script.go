package lcat

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ScriptParseError is returned by Sandbox.Eval when the script fragment
// fails to compile.
type ScriptParseError struct {
	Err error
}

func (e *ScriptParseError) Error() string { return e.Err.Error() }
func (e *ScriptParseError) Unwrap() error { return e.Err }

// ScriptRunError is returned by Sandbox.Eval when a compiled script
// fragment raises during execution.
type ScriptRunError struct {
	Err error
}

func (e *ScriptRunError) Error() string { return e.Err.Error() }
func (e *ScriptRunError) Unwrap() error { return e.Err }

// Sandbox evaluates embedded Lua fragments. Every evaluation runs in a
// fresh interpreter state with the Lua standard library opened and the
// environment passed as the fragment's sole argument; nothing is shared
// between evaluations and no process state leaks in.
type Sandbox struct{}

// SandboxInput is used as input when creating a Sandbox. It carries no
// options yet; the zero value of Sandbox is usable directly.
type SandboxInput struct{}

// NewSandbox creates a new Sandbox.
func NewSandbox(i SandboxInput) *Sandbox {
	return &Sandbox{}
}

// Eval compiles and runs one script fragment against env. The fragment
// receives the environment as its only argument (`local env = ...`) and
// its first return value is coerced to a string using Lua's native string
// conversion. Failures are typed: *ScriptParseError when the fragment does
// not compile, *ScriptRunError when it raises. Fragments run to
// completion; there is no timeout.
func (s *Sandbox) Eval(code string, env Environment) (string, error) {
	L := lua.NewState()
	defer L.Close()

	fn, err := L.LoadString(code)
	if err != nil {
		return "", &ScriptParseError{Err: err}
	}

	L.Push(fn)
	L.Push(luaValue(L, map[string]interface{}(env)))
	if err := L.PCall(1, 1, nil); err != nil {
		return "", &ScriptRunError{Err: err}
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret.String(), nil
}

// luaValue converts a Go value into its Lua counterpart. Mappings become
// tables, slices become 1-indexed tables, and anything without a natural
// Lua form is stringified. The conversion copies; mutations made by the
// script do not write back into the Go value.
func luaValue(L *lua.LState, v interface{}) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case string:
		return lua.LString(t)
	case int:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case float64:
		return lua.LNumber(t)
	case Environment:
		return luaTable(L, t)
	case map[string]interface{}:
		return luaTable(L, t)
	case []interface{}:
		tbl := L.NewTable()
		for _, item := range t {
			tbl.Append(luaValue(L, item))
		}
		return tbl
	case []string:
		tbl := L.NewTable()
		for _, item := range t {
			tbl.Append(lua.LString(item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", t))
	}
}

func luaTable(L *lua.LState, m map[string]interface{}) *lua.LTable {
	tbl := L.NewTable()
	for k, v := range m {
		tbl.RawSetString(k, luaValue(L, v))
	}
	return tbl
}
