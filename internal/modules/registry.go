// Package modules wires the endpoint modules into a callable registry.
// There is no ambient loader: every function and state is constructed with
// its dependencies and registered under a module.name key at startup.
package modules

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/driftworks/driftd/internal/state"
)

// Function is one callable operation, addressed as module.function.
type Function struct {
	Name   string   `json:"name"`
	Doc    string   `json:"doc,omitempty"`
	Params []string `json:"params,omitempty"`

	Call func(ctx context.Context, args Args) (any, error) `json:"-"`
}

// State is one declarative state function, addressed as module.state. Apply
// returns a result rather than an error so a plan keeps evaluating after a
// failed entry.
type State struct {
	Name   string   `json:"name"`
	Doc    string   `json:"doc,omitempty"`
	Params []string `json:"params,omitempty"`

	Apply func(ctx context.Context, name string, params Args, dryRun bool) state.Result `json:"-"`
}

// Registry holds the registered functions and states. It is assembled once
// at startup and read-only afterwards.
type Registry struct {
	functions   map[string]Function
	states      map[string]State
	unavailable map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		functions:   make(map[string]Function),
		states:      make(map[string]State),
		unavailable: make(map[string]string),
	}
}

// Register adds a function. Registering a name twice is a wiring bug.
func (r *Registry) Register(fn Function) {
	if fn.Name == "" || fn.Call == nil {
		panic("modules: function needs a name and a call")
	}
	if _, dup := r.functions[fn.Name]; dup {
		panic("modules: duplicate function " + fn.Name)
	}
	r.functions[fn.Name] = fn
}

// RegisterState adds a state function.
func (r *Registry) RegisterState(st State) {
	if st.Name == "" || st.Apply == nil {
		panic("modules: state needs a name and an apply")
	}
	if _, dup := r.states[st.Name]; dup {
		panic("modules: duplicate state " + st.Name)
	}
	r.states[st.Name] = st
}

// MarkUnavailable records that a module namespace could not be wired, with
// the reason lookups and health reports should show.
func (r *Registry) MarkUnavailable(module, reason string) {
	r.unavailable[module] = reason
}

// Function resolves a function by name. Names in an unconfigured namespace
// yield an UnavailableError, unknown names ErrNotFound.
func (r *Registry) Function(name string) (Function, error) {
	if fn, ok := r.functions[name]; ok {
		return fn, nil
	}
	module, _, _ := strings.Cut(name, ".")
	if reason, ok := r.unavailable[module]; ok {
		return Function{}, &UnavailableError{Module: module, Reason: reason}
	}
	return Function{}, fmt.Errorf("%w: function %s", ErrNotFound, name)
}

// State resolves a state function by name.
func (r *Registry) State(name string) (State, error) {
	if st, ok := r.states[name]; ok {
		return st, nil
	}
	module, _, _ := strings.Cut(name, ".")
	if reason, ok := r.unavailable[module]; ok {
		return State{}, &UnavailableError{Module: module, Reason: reason}
	}
	return State{}, fmt.Errorf("%w: state %s", ErrNotFound, name)
}

// Call resolves and invokes a function in one step.
func (r *Registry) Call(ctx context.Context, name string, args Args) (any, error) {
	fn, err := r.Function(name)
	if err != nil {
		return nil, err
	}
	return fn.Call(ctx, args)
}

// Functions lists the registered functions sorted by name.
func (r *Registry) Functions() []Function {
	out := make([]Function, 0, len(r.functions))
	for _, fn := range r.functions {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// States lists the registered states sorted by name.
func (r *Registry) States() []State {
	out := make([]State, 0, len(r.states))
	for _, st := range r.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ModuleInfo summarizes one module namespace for health reporting.
type ModuleInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Functions int    `json:"functions,omitempty"`
	States    int    `json:"states,omitempty"`
}

// Modules reports every known module namespace, configured or not, sorted
// by name.
func (r *Registry) Modules() []ModuleInfo {
	infos := make(map[string]*ModuleInfo)
	touch := func(module string) *ModuleInfo {
		if info, ok := infos[module]; ok {
			return info
		}
		info := &ModuleInfo{Name: module, Available: true}
		infos[module] = info
		return info
	}
	for name := range r.functions {
		module, _, _ := strings.Cut(name, ".")
		touch(module).Functions++
	}
	for name := range r.states {
		module, _, _ := strings.Cut(name, ".")
		touch(module).States++
	}
	for module, reason := range r.unavailable {
		info := touch(module)
		info.Available = false
		info.Reason = reason
	}
	out := make([]ModuleInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
