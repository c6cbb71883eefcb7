// Package middleware provides composable net/http middleware: request
// logging, panic recovery and CORS.
package middleware

import "net/http"

// Func wraps an http.Handler with additional behavior.
type Func func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first registered
// middleware is the outermost wrapper.
type Stack struct {
	funcs []Func
}

// Use appends mw to the stack.
func (s *Stack) Use(mw Func) {
	s.funcs = append(s.funcs, mw)
}

// Len reports how many middleware are registered.
func (s *Stack) Len() int {
	return len(s.funcs)
}

// Apply wraps handler with every middleware in the stack.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.funcs) - 1; i >= 0; i-- {
		handler = s.funcs[i](handler)
	}
	return handler
}
