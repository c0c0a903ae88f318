// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plugin

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
)

// luaVarsHook is the function a script implements to contribute template
// variables, either as a method on its returned plugin table or as a
// global function.
const luaVarsHook = "extra_template_vars"

// LuaPlugin is a plugin implemented as a single Lua script. Scripts run in
// a sandboxed interpreter without file, process or environment access.
type LuaPlugin struct {
	name  string
	path  string
	proto *lua.FunctionProto
	pool  *statePool
}

// statePool recycles sandboxed interpreter states across hook invocations.
type statePool struct {
	p sync.Pool
}

func newStatePool() *statePool {
	return &statePool{p: sync.Pool{New: func() any { return newSandboxedState() }}}
}

func (sp *statePool) get() *lua.LState { return sp.p.Get().(*lua.LState) }

func (sp *statePool) put(L *lua.LState) {
	L.SetTop(0)
	sp.p.Put(L)
}

// newSandboxedState builds an interpreter with only the safe standard
// libraries. os is replaced with a date/time-only table; io, debug and the
// file loaders stay out.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	osTbl := L.NewTable()
	L.SetField(osTbl, "date", L.NewFunction(func(L *lua.LState) int {
		format := L.OptString(1, "%c")
		t := time.Now()
		if L.GetTop() >= 2 {
			t = time.Unix(int64(L.CheckNumber(2)), 0)
		}
		L.Push(lua.LString(t.Format(luaDateLayout(format))))
		return 1
	}))
	L.SetField(osTbl, "time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(time.Now().Unix()))
		return 1
	}))
	L.SetGlobal("os", osTbl)

	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	return L
}

// LoadLuaPlugins compiles every *.lua script directly inside dir, skipping
// hidden files and anything that is not a regular file. A script that fails
// to compile is skipped with a warning so one broken plugin does not take
// down the rest. A missing directory yields no plugins. Each plugin owns
// its own state pool; globals a script sets are never visible to another
// script.
func LoadLuaPlugins(dir string) ([]*LuaPlugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugin directory: %w", err)
	}

	var plugins []*LuaPlugin
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".lua") {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, name)
		pool := newStatePool()
		proto, err := compileScript(pool, path)
		if err != nil {
			log.Warnf("skipping plugin %s: %v", name, err)
			continue
		}
		plugins = append(plugins, &LuaPlugin{name: name, path: path, proto: proto, pool: pool})
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].name < plugins[j].name })
	return plugins, nil
}

func compileScript(pool *statePool, path string) (*lua.FunctionProto, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	L := pool.get()
	defer pool.put(L)
	fn, err := L.Load(bytes.NewReader(src), filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}
	return fn.Proto, nil
}

// Name implements Plugin.
func (p *LuaPlugin) Name() string { return p.name }

// Path returns the script's location on disk.
func (p *LuaPlugin) Path() string { return p.path }

// ExtraTemplateVars implements TemplateVarProvider by running the script
// and invoking its extra_template_vars hook. A script without the hook, or
// whose hook fails, contributes nothing.
func (p *LuaPlugin) ExtraTemplateVars(info RequestInfo) map[string]any {
	L := p.pool.get()
	defer p.pool.put(L)

	fn := L.NewFunctionFromProto(p.proto)
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		log.Debugf("plugin %s failed to run: %v", p.name, err)
		return nil
	}
	pluginTbl := L.Get(-1)
	L.Pop(1)

	var hookFn lua.LValue
	if pluginTbl.Type() == lua.LTTable {
		hookFn = L.GetField(pluginTbl, luaVarsHook)
	} else {
		hookFn = L.GetGlobal(luaVarsHook)
	}
	if hookFn.Type() != lua.LTFunction {
		return nil
	}

	request := L.NewTable()
	L.SetField(request, "path", lua.LString(info.Path))
	L.SetField(request, "database", lua.LString(info.Database))
	L.SetField(request, "table", lua.LString(info.Table))

	L.Push(hookFn)
	nArgs := 1
	if pluginTbl.Type() == lua.LTTable {
		// Method convention: pass the plugin table as self.
		L.Push(pluginTbl)
		L.Push(request)
		nArgs = 2
	} else {
		L.Push(request)
	}
	if err := L.PCall(nArgs, 1, nil); err != nil {
		log.Debugf("plugin %s hook failed: %v", p.name, err)
		return nil
	}

	result := L.Get(-1)
	L.Pop(1)
	tbl, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}
	return luaTableToMap(tbl)
}

func luaTableToMap(tbl *lua.LTable) map[string]any {
	out := make(map[string]any)
	tbl.ForEach(func(key, value lua.LValue) {
		if k, ok := key.(lua.LString); ok {
			out[string(k)] = luaValueToGo(value)
		}
	})
	return out
}

// luaValueToGo converts a Lua value into the JSON-friendly types templates
// and handlers expect. Tables with contiguous 1..n integer keys decode as
// slices, everything else as maps.
func luaValueToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		maxIdx := 0
		isArray := true
		val.ForEach(func(k, _ lua.LValue) {
			num, ok := k.(lua.LNumber)
			if !ok {
				isArray = false
				return
			}
			if idx := int(num); idx > maxIdx {
				maxIdx = idx
			}
		})
		if isArray && maxIdx > 0 {
			arr := make([]any, maxIdx)
			val.ForEach(func(k, item lua.LValue) {
				if num, ok := k.(lua.LNumber); ok {
					if idx := int(num) - 1; idx >= 0 && idx < maxIdx {
						arr[idx] = luaValueToGo(item)
					}
				}
			})
			return arr
		}
		return luaTableToMap(val)
	default:
		return nil
	}
}

// luaDateLayout maps the common strftime specifiers onto a Go time layout.
func luaDateLayout(format string) string {
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%b", "Jan", "%B", "January", "%a", "Mon", "%A", "Monday",
		"%c", "Mon Jan 2 15:04:05 2006",
	)
	return r.Replace(format)
}
