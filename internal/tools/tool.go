// Package tools implements the operational tools exposed by the CLI and the
// HTTP surface. Every tool declares its parameters, validates its own
// arguments and returns a Result with human text plus structured data.
package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// ParamType is the JSON type a parameter accepts.
type ParamType string

const (
	String  ParamType = "string"
	Number  ParamType = "number"
	Boolean ParamType = "boolean"
)

// Param declares one tool argument.
type Param struct {
	Name        string    `json:"name" yaml:"name"`
	Type        ParamType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Handler runs a tool with already shape-checked arguments.
type Handler func(ctx context.Context, args Args) (*Result, error)

// Tool is one registered operation.
type Tool struct {
	Name        string  `json:"name" yaml:"name"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Params      []Param `json:"params" yaml:"params"`
	ReadOnly    bool    `json:"readOnly" yaml:"readOnly"`
	Destructive bool    `json:"destructive" yaml:"destructive"`
	// OpenWorld marks tools that reach outside the local stack.
	OpenWorld bool    `json:"openWorld" yaml:"openWorld"`
	Handler   Handler `json:"-" yaml:"-"`
}

// Param returns the declared parameter called name.
func (t *Tool) Param(name string) (Param, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// NeedsConfirmation reports whether the tool takes a "confirmed" argument.
func (t *Tool) NeedsConfirmation() bool {
	_, ok := t.Param("confirmed")
	return ok
}

// Call rejects undeclared arguments and runs the handler.
func (t *Tool) Call(ctx context.Context, args Args) (*Result, error) {
	if args == nil {
		args = Args{}
	}
	var unknown []string
	for k := range args {
		if _, ok := t.Param(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, toolerr.New(toolerr.ErrInvalidInput, "unknown parameter(s) for %s: %s", t.Name, strings.Join(unknown, ", "))
	}
	return t.Handler(ctx, args)
}

// Result is a successful tool outcome.
type Result struct {
	Text string         `json:"content" yaml:"content"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

func textResult(text string, data map[string]any) *Result {
	return &Result{Text: text, Data: data}
}

// Registry keeps tools in declaration order.
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool
}

// NewRegistry indexes tools by name. A later duplicate replaces the earlier
// one in lookups but both stay listed.
func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{byName: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		r.tools = append(r.tools, t)
		r.byName[t.Name] = t
	}
	return r
}

// List returns the tools in declaration order.
func (r *Registry) List() []*Tool {
	return r.tools
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, args Args) (*Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, toolerr.New(toolerr.ErrNotFound, "Unknown tool: %s", name)
	}
	return t.Call(ctx, args)
}

// Default builds the full tool set over env, in the order they are listed.
func Default(env *Env) *Registry {
	return NewRegistry(
		preflightCheck(env),
		stackStatus(env),
		queryReadonly(env),
		queryExecute(env),
		dbInspect(env),
		dbCreate(env),
		tableCreate(env),
		userCreate(env),
		grantManage(env),
		dbExport(env),
		dbImport(env),
		phpCLIRun(env),
		diagramER(env),
		diagramRender(env),
	)
}
