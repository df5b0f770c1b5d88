// Package codec provides the encodings containers persist through.
// Every codec round-trips the same schema; they differ only on the wire.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// Codec turns schema values into bytes and back.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Format names accepted by ByName and stored alongside snapshots.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatProto = "proto"
)

var registry = map[string]Codec{
	FormatJSON:  JSON{},
	FormatYAML:  YAML{},
	FormatProto: Proto{},
}

// ByName returns the codec registered for name.
func ByName(name string) (Codec, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (have %v)", name, Names())
	}
	return c, nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// JSON is the default encoding.
type JSON struct{}

func (JSON) Name() string { return FormatJSON }

func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// YAML is the human-editable encoding used by dsctl export.
type YAML struct{}

func (YAML) Name() string { return FormatYAML }

func (YAML) Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	return data, nil
}

func (YAML) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}

// Proto is a compact binary encoding. The value is first lowered to its JSON
// shape, then carried as a google.protobuf.Value, so any JSON-encodable
// schema works without generated messages.
//
// google.protobuf.Value holds numbers as doubles. A number a double cannot
// hold exactly, such as an int64 above 2^53, travels as a one-field struct
// {numberKey: "<digits>"} and is restored as the same literal on decode.
type Proto struct{}

// numberKey marks a number carried as its decimal text.
const numberKey = "@datasources.number"

func (Proto) Name() string { return FormatProto }

func (Proto) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("proto encode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("proto encode: %w", err)
	}
	pv, err := structpb.NewValue(lowerNumbers(generic))
	if err != nil {
		return nil, fmt.Errorf("proto encode: %w", err)
	}
	data, err := proto.Marshal(pv)
	if err != nil {
		return nil, fmt.Errorf("proto encode: %w", err)
	}
	return data, nil
}

func (Proto) Unmarshal(data []byte, v any) error {
	var pv structpb.Value
	if err := proto.Unmarshal(data, &pv); err != nil {
		return fmt.Errorf("proto decode: %w", err)
	}
	raw, err := json.Marshal(raiseNumbers(pv.AsInterface()))
	if err != nil {
		return fmt.Errorf("proto decode: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("proto decode: %w", err)
	}
	return nil
}

// lowerNumbers replaces every json.Number with a float64, or with a
// numberKey struct when the float64 would not be exact.
func lowerNumbers(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, x := range v {
			v[k] = lowerNumbers(x)
		}
		return v
	case []any:
		for i, x := range v {
			v[i] = lowerNumbers(x)
		}
		return v
	case json.Number:
		if f, ok := exactFloat(v); ok {
			return f
		}
		return map[string]any{numberKey: v.String()}
	}
	return v
}

// raiseNumbers turns numberKey structs back into number literals.
func raiseNumbers(v any) any {
	switch v := v.(type) {
	case map[string]any:
		if s, ok := v[numberKey].(string); ok && len(v) == 1 {
			return json.Number(s)
		}
		for k, x := range v {
			v[k] = raiseNumbers(x)
		}
		return v
	case []any:
		for i, x := range v {
			v[i] = raiseNumbers(x)
		}
		return v
	}
	return v
}

// exactFloat reports whether n survives a trip through float64. Integer
// literals must convert back to the same integer; other literals decode to
// float64 under encoding/json anyway.
func exactFloat(n json.Number) (float64, bool) {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0, false
	}
	if strings.ContainsAny(n.String(), ".eE") {
		return f, true
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return f, f >= -0x1p63 && f < 0x1p63 && int64(f) == i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return f, f < 0x1p64 && uint64(f) == u
	}
	return f, false
}
