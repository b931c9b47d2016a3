// Package registry provides the step handler registry keyed by step action name.
// Registering a handler for an action turns that plan step from pure bookkeeping
// into genuine execution.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentorhq/agentor/pkg/protocol"
)

// ErrHandlerNotRegistered indicates no factory is registered for a step action.
var ErrHandlerNotRegistered = errors.New("step handler not registered")

type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.StepHandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.StepHandlerFactory),
	}
}

// RegisterStepHandler registers a factory under its action name, replacing any
// previous registration for the same action.
func (r *Registry) RegisterStepHandler(factory protocol.StepHandlerFactory) {
	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered step handler", "action", factory.ID())
}

// CreateStepHandler creates a handler for the given step action.
func (r *Registry) CreateStepHandler(action string, config map[string]any) (protocol.StepHandler, error) {
	factory, ok := r.factories[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotRegistered, action)
	}

	return factory.Create(config)
}

// RegisteredActions returns the action names with a registered factory.
func (r *Registry) RegisteredActions() []string {
	actions := make([]string, 0, len(r.factories))
	for action := range r.factories {
		actions = append(actions, action)
	}

	return actions
}
