package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	yaml "gopkg.in/yaml.v3"
)

// Raw is a decoded but unverified configuration document. Keys keep the
// order they first appear in the document. A repeated key keeps its first
// position and takes the last value, as JSON decoders commonly do.
type Raw struct {
	keys   []string
	values map[string]any
}

// NewRaw returns an empty document.
func NewRaw() *Raw {
	return &Raw{values: make(map[string]any)}
}

// Set stores value under key.
func (r *Raw) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Raw) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Delete removes key.
func (r *Raw) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in document order.
func (r *Raw) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of keys.
func (r *Raw) Len() int {
	return len(r.keys)
}

// MarshalJSON writes the document as a JSON object in document order.
func (r *Raw) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeYAML walks the top-level mapping node so key order and repeated
// keys survive decoding.
func decodeYAML(data []byte) (*Raw, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	raw := NewRaw()
	if len(doc.Content) == 0 {
		return raw, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: configuration must be a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, node := root.Content[i], root.Content[i+1]
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("field %q: %w", key.Value, err)
		}
		raw.Set(key.Value, value)
	}
	return raw, nil
}

// decodeTOML decodes values with go-toml and recovers the top-level key
// order from the document's expressions.
func decodeTOML(data []byte) (*Raw, error) {
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	var order []string
	var p unstable.Parser
	p.Reset(data)
	inTable := false
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			inTable = true
		case unstable.KeyValue:
			if inTable {
				continue
			}
		default:
			continue
		}
		it := expr.Key()
		if !it.Next() {
			continue
		}
		if name := string(it.Node().Data); !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}

	raw := NewRaw()
	for _, k := range order {
		if v, ok := values[k]; ok {
			raw.Set(k, v)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if _, ok := raw.Get(k); !ok {
			raw.Set(k, values[k])
		}
	}
	return raw, nil
}
