//go:build js_eval

package query

import (
	"fmt"

	"github.com/dop251/goja"
)

const engineJS = "js"

type jsEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEngine constructs an Engine backed by goja. Each evaluation runs in a
// fresh runtime, so scripts can not leak state between calls.
func NewJSEngine(opts ...Option) Engine {
	cfg := applyOptions(opts)
	return &jsEngine{cache: cfg.cache, registry: cfg.registry}
}

func (e *jsEngine) Name() string {
	return engineJS
}

func (e *jsEngine) Evaluate(env Env, expression string) (any, error) {
	if expression == "" {
		return nil, Wrap(engineJS, "", env.Namespace, ErrEmptyExpression)
	}
	env = env.withDefaults()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, Wrap(engineJS, expression, env.label(), err)
	}
	return e.run(env, expression, program)
}

func (e *jsEngine) Compile(expression string) (Program, error) {
	if expression == "" {
		return nil, Wrap(engineJS, "", "", ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, Wrap(engineJS, expression, "", err)
	}
	return &jsProgram{engine: e, expression: expression, program: program}, nil
}

func (e *jsEngine) loadOrCompile(expression string) (*goja.Program, error) {
	key := cacheKey(engineJS, e.registry, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *jsEngine) run(env Env, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	if err := e.inject(vm, env); err != nil {
		return nil, Wrap(engineJS, expression, env.label(), err)
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, Wrap(engineJS, expression, env.label(), err)
	}
	return value.Export(), nil
}

func (e *jsEngine) inject(vm *goja.Runtime, env Env) error {
	for key, value := range env.bindings() {
		if err := vm.Set(key, value); err != nil {
			return fmt.Errorf("bind %q: %w", key, err)
		}
	}
	if e.registry == nil {
		return nil
	}
	if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}); err != nil {
		return err
	}
	for _, name := range e.registry.Names() {
		fn := name
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return e.registry.Call(fn, arguments...)
		}); err != nil {
			return err
		}
	}
	return nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsProgram struct {
	engine     *jsEngine
	expression string
	program    *goja.Program
}

func (p *jsProgram) Evaluate(env Env) (any, error) {
	return p.engine.run(env.withDefaults(), p.expression, p.program)
}

// JSAvailable reports whether the goja engine was compiled in.
func JSAvailable() bool {
	return true
}
