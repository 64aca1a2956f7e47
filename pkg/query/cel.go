package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

const engineCEL = "cel"

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEngine constructs an Engine backed by cel-go. Variables are declared
// per data shape, so compiled programs are cached per expression and key set.
func NewCELEngine(opts ...Option) Engine {
	cfg := applyOptions(opts)
	return &celEngine{cache: cfg.cache, registry: cfg.registry}
}

func (e *celEngine) Name() string {
	return engineCEL
}

func (e *celEngine) Evaluate(env Env, expression string) (any, error) {
	if expression == "" {
		return nil, Wrap(engineCEL, "", env.Namespace, ErrEmptyExpression)
	}
	env = env.withDefaults()
	bindings := env.bindings()
	program, err := e.loadOrCompile(expression, bindings)
	if err != nil {
		return nil, Wrap(engineCEL, expression, env.label(), err)
	}
	out, _, err := program.program.Eval(e.activation(bindings))
	if err != nil {
		return nil, Wrap(engineCEL, expression, env.label(), err)
	}
	return out.Value(), nil
}

// Compile defers type checking to the first evaluation, when the variable
// set is known.
func (e *celEngine) Compile(expression string) (Program, error) {
	if expression == "" {
		return nil, Wrap(engineCEL, "", "", ErrEmptyExpression)
	}
	return &celCompiled{engine: e, expression: expression}, nil
}

func (e *celEngine) loadOrCompile(expression string, bindings map[string]any) (*celProgram, error) {
	names := variableNames(bindings)
	key := cacheKey(engineCEL, e.registry, expression+"|"+strings.Join(names, ","))
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{env: env, program: prg}
	if e.cache != nil {
		e.cache.Set(key, bundle)
	}
	return bundle, nil
}

func (e *celEngine) buildEnv(names []string) (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(names)+1)
	for _, name := range names {
		if name == "now" {
			opts = append(opts, celgo.Variable(name, celgo.TimestampType))
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		// CEL has no variadic functions: call("name") and call("name", [args]).
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.UnaryBinding(func(name ref.Val) ref.Val {
					return e.call(name, nil)
				}),
			),
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.call),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEngine) activation(bindings map[string]any) map[string]any {
	activation := make(map[string]any, len(bindings))
	for key, value := range bindings {
		if isIdentifier(key) {
			activation[key] = value
		}
	}
	return activation
}

func (e *celEngine) call(nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("query: call name must be string")
	}
	var args []any
	if argsVal != nil {
		native, err := argsVal.ConvertToNative(reflect.TypeOf([]any{}))
		if err != nil {
			return types.NewErr("query: call arguments: %v", err)
		}
		args, _ = native.([]any)
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiled struct {
	engine     *celEngine
	expression string
}

func (p *celCompiled) Evaluate(env Env) (any, error) {
	if p.engine == nil {
		return nil, fmt.Errorf("query: cel program missing engine")
	}
	return p.engine.Evaluate(env, p.expression)
}

// variableNames returns the identifier-safe binding names, sorted.
func variableNames(bindings map[string]any) []string {
	names := make([]string, 0, len(bindings))
	for key := range bindings {
		if isIdentifier(key) {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
