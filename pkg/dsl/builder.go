package dsl

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/internal/validator"
	"github.com/aretw0/statechart/pkg/domain"
)

// Setup declares the nodes of one scope using the given factory.
type Setup func(f *Factory)

// NestedSetup configures a child scope of a nest or split.
type NestedSetup struct {
	Setup Setup
	// ExecuteExit runs the exit hooks of the scope's active nodes when the
	// composite is left by one of its own events. Nest and Split set it.
	ExecuteExit bool
	// ExecuteFinal runs the OnEnter hooks of the scope's final node when the
	// composite is left by one of its own events before the scope completed.
	ExecuteFinal bool
}

// builder collects declaration mistakes that cannot be expressed as graph shape
// (calling Nest twice, empty event names, ...). They are reported together with
// the validator findings.
type builder struct {
	errs []error
}

func (b *builder) fail(n *model.Node, origin, format string, args ...any) {
	scope := ""
	if n.Scope != nil {
		scope = n.Scope.ID
	}
	b.errs = append(b.errs, &domain.ConfigurationError{
		Scope:  scope,
		Node:   n.ID,
		Origin: origin,
		Reason: fmt.Sprintf(format, args...),
	})
}

// Build runs setup against a fresh root factory, validates the result and returns
// the immutable graph. All problems are reported at once, joined with errors.Join.
func Build(name string, setup Setup) (*model.Graph, error) {
	if setup == nil {
		return nil, &domain.ConfigurationError{Reason: "nil setup"}
	}

	b := &builder{}
	g := &model.Graph{Name: name, Root: &model.Scope{}}
	setup(&Factory{scope: g.Root, b: b})

	errs := append([]error{}, b.errs...)
	if err := validator.Validate(g); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// callerOrigin reports the file:line skip frames above its caller.
func callerOrigin(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
