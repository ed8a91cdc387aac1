package normalize

import (
	"bytes"
	"encoding/json"
)

// Payload is a JSON object that remembers key insertion order, so normalized
// documents always serialize with the clinical sections in a stable order.
type Payload struct {
	keys   []string
	values map[string]any
}

// NewPayload returns an empty ordered payload.
func NewPayload() *Payload {
	return &Payload{values: make(map[string]any)}
}

// Set stores a value, appending the key on first insert.
func (p *Payload) Set(key string, value any) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for a key.
func (p *Payload) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Section returns the value for a key as an object, or nil.
func (p *Payload) Section(key string) map[string]any {
	if v, ok := p.values[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// Keys returns the ordered key list.
func (p *Payload) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Map returns the underlying values without ordering guarantees.
func (p *Payload) Map() map[string]any {
	return p.values
}

// MarshalJSON emits keys in insertion order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, preserving the document's key order.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &json.UnmarshalTypeError{Value: "non-object", Type: nil}
	}
	p.keys = nil
	p.values = make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var val any
		if err := dec.Decode(&val); err != nil {
			return err
		}
		p.Set(key, val)
	}
	_, err = dec.Token()
	return err
}
