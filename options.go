package persist

import (
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/pkg/query"
)

// WithLazy controls whether the cache is filled on first access (true, the
// default) or during New.
func WithLazy(lazy bool) Option {
	return func(cfg *config) {
		cfg.lazy = lazy
	}
}

// WithNamespace sets the backend key the record is stored under. Blank
// values keep DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(cfg *config) {
		if ns := strings.TrimSpace(namespace); ns != "" {
			cfg.namespace = ns
		}
	}
}

// WithVersion sets the semantic version written with every record. A stored
// record with an older version is replaced by the defaults. Blank values
// keep DefaultVersion.
func WithVersion(version string) Option {
	return func(cfg *config) {
		if v := strings.TrimSpace(version); v != "" {
			cfg.version = v
		}
	}
}

// WithDebounce sets the quiet period before a change is persisted.
// Non-positive values keep DefaultDebounce.
func WithDebounce(delay time.Duration) Option {
	return func(cfg *config) {
		if delay > 0 {
			cfg.debounce = delay
		}
	}
}

// WithLogger attaches a storage logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithSlog logs storage events through logger.
func WithSlog(logger *slog.Logger) Option {
	return WithLogger(SlogLogger(logger))
}

// WithActivityHooks attaches activity hooks notified on reset, hydrate and
// persist. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Clone()
	return func(cfg *config) {
		cfg.hooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on activity events.
// Blank values keep activity.DefaultChannel.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		if ch := strings.TrimSpace(channel); ch != "" {
			cfg.channel = ch
		}
	}
}

// WithQueryEngine replaces the default expr engine used by Evaluate. A nil
// engine disables queries and Evaluate returns ErrNoQueryEngine.
func WithQueryEngine(engine query.Engine) Option {
	return func(cfg *config) {
		cfg.engine = engine
		cfg.engineSet = true
	}
}

// WithFunctionRegistry exposes custom functions to the default engine.
func WithFunctionRegistry(registry *query.FunctionRegistry) Option {
	return func(cfg *config) {
		cfg.functions = registry
	}
}

// WithProgramCache caches compiled programs of the default engine.
func WithProgramCache(cache query.ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

// WithFlushErrorHandler receives errors from debounced writes. Explicit
// Flush and Close calls return their errors instead.
func WithFlushErrorHandler(handler func(error)) Option {
	return func(cfg *config) {
		cfg.onFlushError = handler
	}
}
