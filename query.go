package persist

import (
	"time"

	"github.com/goliatone/go-persist/layering"
	"github.com/goliatone/go-persist/pkg/query"
)

// Evaluate runs expression against a snapshot of the cache with the
// configured query engine.
func (m *Manager) Evaluate(expression string) (any, error) {
	return m.EvaluateWith(nil, expression)
}

// EvaluateWith is Evaluate with extra values bound under args.
func (m *Manager) EvaluateWith(args map[string]any, expression string) (any, error) {
	engine := m.cfg.engine
	if engine == nil {
		return nil, ErrNoQueryEngine
	}

	m.mu.Lock()
	if err := m.ready(); err != nil {
		m.unlock()
		return nil, err
	}
	data := layering.CloneMap(m.cache)
	m.unlock()

	start := time.Now()
	result, err := engine.Evaluate(query.Env{
		Data:      data,
		Namespace: m.cfg.namespace,
		Version:   m.cfg.version,
		Args:      args,
	}, expression)
	err = query.Wrap(engine.Name(), expression, m.cfg.namespace, err)
	m.log(LogEvent{Op: OpQuery, Key: expression, Duration: time.Since(start), Err: err})
	if err != nil {
		return nil, err
	}
	return result, nil
}
