package query

import (
	"errors"
	"fmt"
)

// ErrEmptyExpression reports an evaluation or compile call without source.
var ErrEmptyExpression = errors.New("query: expression must not be empty")

// Error captures engine metadata alongside the originating error.
type Error struct {
	Engine    string
	Expr      string
	Namespace string
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("query: %s engine %s namespace=%s: %v", e.Engine, describeExpression(e.Expr), e.Namespace, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

// Wrap attaches engine, expression and namespace to err. An existing *Error
// in the chain is completed in place rather than wrapped again.
func Wrap(engine, expr, namespace string, err error) error {
	if err == nil {
		return nil
	}

	var queryErr *Error
	if errors.As(err, &queryErr) {
		if queryErr.Engine == "" {
			queryErr.Engine = engine
		}
		if queryErr.Expr == "" {
			queryErr.Expr = expr
		}
		if queryErr.Namespace == "" {
			queryErr.Namespace = namespace
		}
		return err
	}

	return &Error{
		Engine:    engine,
		Expr:      expr,
		Namespace: namespace,
		Err:       err,
	}
}
