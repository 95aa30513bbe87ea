// Package clock lets availability and checkout logic be evaluated against a
// controllable "now".
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// FuncClock adapts a function, handy for tests that advance time.
type FuncClock func() time.Time

func (f FuncClock) Now() time.Time { return f() }

func NewReal() Clock { return RealClock{} }

func NewFixed(t time.Time) Clock { return FixedClock{T: t} }
