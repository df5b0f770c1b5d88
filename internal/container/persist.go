package container

import (
	"fmt"

	"github.com/abelbrown/datasources/internal/codec"
)

// Encoded documents. Every codec writes the same shape.
type listDoc[T any] struct {
	Items []T `json:"items" yaml:"items"`
}

type mapDoc[K comparable, V any] struct {
	Entries []Entry[K, V] `json:"entries" yaml:"entries"`
}

type valueDoc[T any] struct {
	Value T `json:"value" yaml:"value"`
}

// Encode serializes the list as {"items": [...]}.
func (l *List[T]) Encode(c codec.Codec) ([]byte, error) {
	doc := listDoc[T]{Items: l.Items()}
	if doc.Items == nil {
		doc.Items = []T{}
	}
	data, err := c.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return data, nil
}

// Decode replaces the contents with the decoded items in one cycle.
// On error the list is left untouched.
func (l *List[T]) Decode(c codec.Codec, data []byte) error {
	var doc listDoc[T]
	if err := c.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	l.Replace(doc.Items)
	return nil
}

// DecodeList builds a new list from encoded data.
func DecodeList[T any](c codec.Codec, data []byte) (*List[T], error) {
	var doc listDoc[T]
	if err := c.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return NewList(doc.Items...), nil
}

// Encode serializes the map as {"entries": [{"key": k, "value": v}, ...]}
// in insertion order.
func (m *Map[K, V]) Encode(c codec.Codec) ([]byte, error) {
	data, err := c.Marshal(mapDoc[K, V]{Entries: m.Entries()})
	if err != nil {
		return nil, fmt.Errorf("encode map: %w", err)
	}
	return data, nil
}

// Decode makes the decoded entries the full contents in one Merge cycle.
func (m *Map[K, V]) Decode(c codec.Codec, data []byte) error {
	var doc mapDoc[K, V]
	if err := c.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode map: %w", err)
	}
	m.Replace(doc.Entries)
	return nil
}

// DecodeMap builds a new map from encoded data.
func DecodeMap[K comparable, V any](c codec.Codec, data []byte) (*Map[K, V], error) {
	var doc mapDoc[K, V]
	if err := c.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	m := NewMap[K, V]()
	for _, e := range doc.Entries {
		m.put(e.Key, e.Value)
	}
	return m, nil
}

// Encode serializes the value as {"value": v}.
func (c *Value[T]) Encode(cd codec.Codec) ([]byte, error) {
	data, err := cd.Marshal(valueDoc[T]{Value: c.v})
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return data, nil
}

// Decode sets the decoded value.
func (c *Value[T]) Decode(cd codec.Codec, data []byte) error {
	var doc valueDoc[T]
	if err := cd.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	c.Set(doc.Value)
	return nil
}

// DecodeValue builds a new value container from encoded data.
func DecodeValue[T any](cd codec.Codec, data []byte) (*Value[T], error) {
	var doc valueDoc[T]
	if err := cd.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return NewValue(doc.Value), nil
}
