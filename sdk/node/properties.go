package node

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNumber Kind = iota
	KindText
	KindBlob
	KindBool
)

var kindNames = map[Kind]string{
	KindNumber: "number",
	KindText:   "text",
	KindBlob:   "blob",
	KindBool:   "bool",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func parseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Value is a property value holding a number, a string, a binary blob or a boolean.
// Blob payloads are copied in and out, so a Value is immutable once built.
type Value struct {
	kind Kind
	num  float64
	text string
	blob []byte
	flag bool
}

func Number(v float64) Value { return Value{kind: KindNumber, num: v} }
func Text(v string) Value    { return Value{kind: KindText, text: v} }
func Bool(v bool) Value      { return Value{kind: KindBool, flag: v} }

// Blob copies v.
func Blob(v []byte) Value { return Value{kind: KindBlob, blob: bytes.Clone(v)} }

// Kind reports the variant held.
func (v Value) Kind() Kind { return v.kind }

// AsNumber returns the number and whether v holds one.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsText returns the string and whether v holds one.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsBlob returns a copy of the blob and whether v holds one.
func (v Value) AsBlob() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return bytes.Clone(v.blob), true
}

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindBlob:
		return bytes.Equal(v.blob, o.blob)
	case KindBool:
		return v.flag == o.flag
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprint(v.num)
	case KindText:
		return v.text
	case KindBlob:
		return fmt.Sprintf("<%d bytes>", len(v.blob))
	case KindBool:
		return fmt.Sprint(v.flag)
	}
	return ""
}

type valueRecord struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// MarshalYAML writes v as {type, value}. Blobs are base64 text.
func (v Value) MarshalYAML() (interface{}, error) {
	var payload interface{}
	switch v.kind {
	case KindNumber:
		payload = v.num
	case KindText:
		payload = v.text
	case KindBlob:
		payload = base64.StdEncoding.EncodeToString(v.blob)
	case KindBool:
		payload = v.flag
	default:
		return nil, fmt.Errorf("%w: property kind %d", ErrInvalidState, v.kind)
	}
	return struct {
		Type  string      `yaml:"type"`
		Value interface{} `yaml:"value"`
	}{v.kind.String(), payload}, nil
}

// UnmarshalYAML reads the {type, value} form written by MarshalYAML.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var rec valueRecord
	if err := node.Decode(&rec); err != nil {
		return err
	}
	kind, ok := parseKind(rec.Type)
	if !ok {
		return fmt.Errorf("%w: property type %q", ErrInvalidState, rec.Type)
	}

	switch kind {
	case KindNumber:
		var f float64
		if err := rec.Value.Decode(&f); err != nil {
			return err
		}
		*v = Number(f)
	case KindText:
		var s string
		if err := rec.Value.Decode(&s); err != nil {
			return err
		}
		*v = Text(s)
	case KindBlob:
		var s string
		if err := rec.Value.Decode(&s); err != nil {
			return err
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("%w: blob property: %w", ErrInvalidState, err)
		}
		*v = Value{kind: KindBlob, blob: data}
	case KindBool:
		var b bool
		if err := rec.Value.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	}
	return nil
}

// SetProperty stores value under name.
func (n *Node) SetProperty(name string, value Value) {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()
	n.properties[name] = value
}

// Property returns the value stored under name.
func (n *Node) Property(name string) (Value, bool) {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()
	v, ok := n.properties[name]
	return v, ok
}

// RemoveProperty deletes name and reports whether it was present.
func (n *Node) RemoveProperty(name string) bool {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()
	_, ok := n.properties[name]
	delete(n.properties, name)
	return ok
}

// PropertyNames returns the stored names in sorted order.
func (n *Node) PropertyNames() []string {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()
	names := make([]string, 0, len(n.properties))
	for name := range n.properties {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
