package container

import "github.com/abelbrown/datasources/internal/observe"

// Value holds a single T. Observers register under KindValue and see
// WillUpdateValue/DidUpdateValue around every change.
type Value[T any] struct {
	subject observe.Subject
	v       T
}

func NewValue[T any](v T) *Value[T] {
	return &Value[T]{subject: observe.NewSubject(observe.KindValue), v: v}
}

func (c *Value[T]) Observers() *observe.Registry { return c.subject.Observers() }

func (c *Value[T]) Get() T { return c.v }

func (c *Value[T]) Set(v T) {
	c.subject.NotifyWillUpdateValue(c)
	c.v = v
	c.subject.NotifyDidUpdateValue(c)
}

// Update mutates the held value in place, e.g. one field of a struct.
func (c *Value[T]) Update(fn func(*T)) {
	c.subject.NotifyWillUpdateValue(c)
	fn(&c.v)
	c.subject.NotifyDidUpdateValue(c)
}
