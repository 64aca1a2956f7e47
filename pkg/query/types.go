// Package query evaluates expressions against a snapshot of a storage
// namespace. Three engines are available: expr (the default), CEL, and
// JavaScript via goja when built with the js_eval tag.
//
// Every engine binds the same environment: each top-level key of the
// namespace data, plus data (the whole tree), namespace, version, now and
// args. Data keys shadow the reserved names, matching how the values read
// from the tree.
package query

import (
	"time"
)

// Env carries the inputs available to an expression.
type Env struct {
	Data      map[string]any
	Namespace string
	Version   string
	Now       *time.Time
	Args      map[string]any
}

// Engine executes expressions against an Env.
type Engine interface {
	Name() string
	Evaluate(env Env, expression string) (any, error)
	Compile(expression string) (Program, error)
}

// Program is a reusable compiled expression.
type Program interface {
	Evaluate(env Env) (any, error)
}

// ProgramCache stores compiled programs keyed by engine and expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Option configures an engine.
type Option func(*engineConfig)

type engineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithProgramCache wires a ProgramCache into an engine.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry wires a copy of registry into an engine.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (env Env) withDefaults() Env {
	if env.Now == nil {
		now := time.Now()
		env.Now = &now
	}
	if env.Args == nil {
		env.Args = map[string]any{}
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return env
}

func (env Env) label() string {
	if env.Namespace == "" {
		return "unknown"
	}
	return env.Namespace
}

// bindings flattens env into the variable set every engine exposes.
func (env Env) bindings() map[string]any {
	out := map[string]any{
		"now":       *env.Now,
		"args":      env.Args,
		"namespace": env.Namespace,
		"version":   env.Version,
		"data":      env.Data,
	}
	for key, value := range env.Data {
		out[key] = value
	}
	return out
}

// cacheKey scopes a compiled program to the engine kind and the function set
// it was compiled against.
func cacheKey(engine string, registry *FunctionRegistry, expression string) string {
	return engine + ":" + registry.ID() + ":" + expression
}
