package query

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const engineExpr = "expr"

// exprEngine executes expressions using github.com/expr-lang/expr.
type exprEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEngine constructs an Engine backed by expr-lang/expr.
func NewExprEngine(opts ...Option) Engine {
	cfg := applyOptions(opts)
	return &exprEngine{cache: cfg.cache, registry: cfg.registry}
}

func (e *exprEngine) Name() string {
	return engineExpr
}

func (e *exprEngine) Evaluate(env Env, expression string) (any, error) {
	if expression == "" {
		return nil, Wrap(engineExpr, "", env.Namespace, ErrEmptyExpression)
	}
	env = env.withDefaults()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, Wrap(engineExpr, expression, env.label(), err)
	}
	return e.run(program, expression, env)
}

func (e *exprEngine) Compile(expression string) (Program, error) {
	if expression == "" {
		return nil, Wrap(engineExpr, "", "", ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprProgram{engine: e, program: program, expression: expression}, nil
}

func (e *exprEngine) run(program *exprvm.Program, expression string, env Env) (any, error) {
	result, err := exprlang.Run(program, e.environment(env))
	if err != nil {
		return nil, Wrap(engineExpr, expression, env.label(), err)
	}
	return result, nil
}

func (e *exprEngine) loadOrCompile(expression string) (*exprvm.Program, error) {
	key := cacheKey(engineExpr, e.registry, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registry.Names() {
		fn := name
		options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
			return e.registry.Call(fn, arguments...)
		}))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, Wrap(engineExpr, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *exprEngine) environment(env Env) map[string]any {
	bindings := env.bindings()
	if e.registry != nil {
		bindings["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return bindings
}

type exprProgram struct {
	engine     *exprEngine
	program    *exprvm.Program
	expression string
}

func (p *exprProgram) Evaluate(env Env) (any, error) {
	return p.engine.run(p.program, p.expression, env.withDefaults())
}
