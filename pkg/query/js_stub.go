//go:build !js_eval

package query

// NewJSEngine is unavailable without the js_eval build tag and returns nil.
func NewJSEngine(opts ...Option) Engine {
	_ = applyOptions(opts)
	return nil
}

// JSAvailable reports whether the goja engine was compiled in.
func JSAvailable() bool {
	return false
}
