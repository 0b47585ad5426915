// Package registry provides the central glue for the runner system.
//
// The Registry stores mappings between the runner type names used in
// pipeline files (e.g. "extension_build") and the compiled Go functions and
// input types that implement them. It is populated at startup and then
// validated so that a mismatch between a handler's signature and the
// executor's calling convention surfaces as a startup failure, not a
// reflection panic mid-run.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
)

// Module is the interface all runner modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredRunner holds the compiled Go parts of a runner.
type RegisteredRunner struct {
	// NewInput returns a fresh pointer to the runner's input struct, whose
	// fields carry hcl tags matching the step's arguments block. Nil means
	// the runner takes no arguments.
	NewInput func() any

	// Fn is the handler, with signature
	// func(ctx context.Context, input *T) (*Out, error). Out is a struct
	// whose fields carry cty tags; it becomes the step's output object.
	// A nil or untyped-nil output means the step produces no output.
	Fn any
}

// Registry holds all registered runners for a single application instance.
type Registry struct {
	runners map[string]*RegisteredRunner
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{runners: make(map[string]*RegisteredRunner)}
}

// RegisterRunner registers a runner under its pipeline type name. Double
// registration is a programmer error.
func (r *Registry) RegisterRunner(name string, handler *RegisteredRunner) {
	if _, exists := r.runners[name]; exists {
		panic(fmt.Sprintf("runner with name '%s' already registered", name))
	}
	slog.Debug("Registering runner.", "name", name)
	r.runners[name] = handler
}

// Runner looks up a registered runner by type name.
func (r *Registry) Runner(name string) (*RegisteredRunner, bool) {
	handler, ok := r.runners[name]
	return handler, ok
}

// RunnerTypes returns the sorted list of registered type names.
func (r *Registry) RunnerTypes() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Validate performs a strict check of every handler's signature against the
// executor's calling convention.
func (r *Registry) Validate() error {
	var errs []string

	for name, handler := range r.runners {
		fnType := reflect.TypeOf(handler.Fn)
		if fnType == nil || fnType.Kind() != reflect.Func {
			errs = append(errs, fmt.Sprintf("runner '%s': Fn is not a function", name))
			continue
		}
		if fnType.NumIn() != 2 || fnType.NumOut() != 2 {
			errs = append(errs, fmt.Sprintf("runner '%s': handler must be func(ctx, *Input) (*Output, error)", name))
			continue
		}
		if !fnType.In(0).Implements(contextType) {
			errs = append(errs, fmt.Sprintf("runner '%s': first parameter must be context.Context", name))
		}
		if handler.NewInput != nil {
			inputType := reflect.TypeOf(handler.NewInput())
			if inputType != fnType.In(1) {
				errs = append(errs, fmt.Sprintf("runner '%s': NewInput returns %s but handler takes %s", name, inputType, fnType.In(1)))
			}
		}
		if !fnType.Out(1).Implements(errorType) {
			errs = append(errs, fmt.Sprintf("runner '%s': second return value must be error", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
