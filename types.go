package persist

import (
	"time"

	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/pkg/query"
)

const (
	// DefaultNamespace is the backend key used when none is configured.
	DefaultNamespace = "STORAGE_MANAGER"
	// DefaultVersion is the record version used when none is configured.
	DefaultVersion = "0.0.0"
	// DefaultDebounce is the quiet period before a change is persisted.
	DefaultDebounce = 200 * time.Millisecond
)

// Record is the unit persisted under a namespace key.
type Record struct {
	Version   string         `json:"version"`
	Data      map[string]any `json:"data"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// Option configures a Manager.
type Option func(*config)

type config struct {
	lazy         bool
	namespace    string
	version      string
	debounce     time.Duration
	logger       Logger
	hooks        activity.Hooks
	channel      string
	engine       query.Engine
	engineSet    bool
	functions    *query.FunctionRegistry
	programCache query.ProgramCache
	onFlushError func(error)
}

func applyOptions(opts []Option) config {
	cfg := config{
		lazy:      true,
		namespace: DefaultNamespace,
		version:   DefaultVersion,
		debounce:  DefaultDebounce,
		logger:    noopLogger{},
		channel:   activity.DefaultChannel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.engineSet {
		var engineOpts []query.Option
		if cfg.programCache != nil {
			engineOpts = append(engineOpts, query.WithProgramCache(cfg.programCache))
		}
		if cfg.functions != nil {
			engineOpts = append(engineOpts, query.WithFunctionRegistry(cfg.functions))
		}
		cfg.engine = query.NewExprEngine(engineOpts...)
	}
	return cfg
}
