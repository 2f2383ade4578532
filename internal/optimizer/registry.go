package optimizer

import (
	"context"
	"fmt"
)

// ActionExecutor performs the platform-side effect of a recommendation.
// Implementations live outside the engine (typically an HTTP adapter to the
// advertising platform); the engine only needs a success/error outcome.
type ActionExecutor interface {
	Execute(ctx context.Context, rec *Recommendation) error
	Ignore(ctx context.Context, rec *Recommendation) error
}

// ExecutorRegistry maps action-module identifiers to their executors, so the
// engine stays agnostic to concrete action semantics.
type ExecutorRegistry struct {
	modules map[string]ActionExecutor
}

// NewExecutorRegistry creates an empty registry.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{modules: make(map[string]ActionExecutor)}
}

// Register binds an executor to an action module, replacing any previous one.
func (r *ExecutorRegistry) Register(module string, exec ActionExecutor) {
	r.modules[module] = exec
}

// Lookup resolves the executor for an action module.
func (r *ExecutorRegistry) Lookup(module string) (ActionExecutor, error) {
	exec, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("no executor registered for action module %q", module)
	}
	return exec, nil
}

// ActionModuleInfo holds dispatch and display metadata for one
// recommendation type.
type ActionModuleInfo struct {
	Module string `json:"module"`
	Label  string `json:"label"`
}

var actionModules = map[RecommendationType]ActionModuleInfo{
	TypePauseCreative:   {Module: "creative-control", Label: "Pause creative"},
	TypeReduceBudget:    {Module: "budget-control", Label: "Reduce budget"},
	TypeIncreaseBudget:  {Module: "budget-control", Label: "Increase budget"},
	TypeExcludeAudience: {Module: "audience-targeting", Label: "Exclude audience"},
	TypeRefreshCreative: {Module: "creative-control", Label: "Refresh creative"},
	TypeOptimizeBidding: {Module: "bidding-strategy", Label: "Optimize bidding"},
}

// ActionModuleFor returns the module metadata for a recommendation type.
func ActionModuleFor(t RecommendationType) (ActionModuleInfo, bool) {
	info, ok := actionModules[t]
	return info, ok
}

// ActionModules returns the distinct action modules, for wiring executors.
func ActionModules() []ActionModuleInfo {
	seen := make(map[string]bool, len(actionModules))
	out := make([]ActionModuleInfo, 0, len(actionModules))
	for _, t := range AllRecommendationTypes() {
		info := actionModules[t]
		if !seen[info.Module] {
			seen[info.Module] = true
			out = append(out, info)
		}
	}
	return out
}
