// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/registry"
	"github.com/agentorhq/agentor/pkg/steps/evaluatepolicies"
	"github.com/agentorhq/agentor/pkg/steps/executedecision"
	"github.com/agentorhq/agentor/pkg/steps/gathercontext"
	"github.com/agentorhq/agentor/pkg/steps/storeresults"
)

// NewRegistry builds a step handler registry with the native handlers for the
// fixed plan template registered.
func NewRegistry(logger *slog.Logger, memories *memory.Store, policies persistence.PolicyRepository) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterStepHandler(gathercontext.NewHandlerFactory(memories))
	reg.RegisterStepHandler(evaluatepolicies.NewHandlerFactory(policies))
	reg.RegisterStepHandler(executedecision.NewHandlerFactory())
	reg.RegisterStepHandler(storeresults.NewHandlerFactory(memories))

	return reg
}
