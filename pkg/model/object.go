package model

import (
	"fmt"
)

const (
	// IDField is the identity field of all persisted objects
	IDField = "_id"

	// TypeField tells the kind of a persisted object, when relevant
	TypeField = "type"
)

// DataObject is an immutable, arbitrary-shape record.
//
// Values are restricted to what JSON can express.
type DataObject map[string]interface{}

// ID returns the identity field of the object, or the zero hash
func (o DataObject) ID() Hash {
	switch id := o[IDField].(type) {
	case string:
		return Hash(id)
	case Hash:
		return id
	default:
		return ""
	}
}

// Type of the object, if any
func (o DataObject) Type() string {
	t, _ := o[TypeField].(string)
	return t
}

// WithID returns a shallow copy of the object with its identity field set
func (o DataObject) WithID(h Hash) DataObject {
	c := make(DataObject, len(o)+1)
	for k, v := range o {
		c[k] = v
	}
	c[IDField] = string(h)
	return c
}

// ComputeHash returns the content hash of an object: the digest of its canonical form,
// with the identity field cleared.
func ComputeHash(o DataObject) (Hash, error) {
	data, err := CanonicalSerialize(o.WithID(""))
	if err != nil {
		return "", fmt.Errorf("canonical serialization: %w", err)
	}
	return Digest(data), nil
}

// Encode an object for storage
func (o DataObject) Encode() ([]byte, error) {
	return CanonicalSerialize(o)
}

// DecodeObject decodes a stored object
func DecodeObject(data []byte) (DataObject, error) {
	var o DataObject
	if err := Unmarshal(data, &o); err != nil {
		return nil, ErrMalformedObject.Wrap(err)
	}
	if o == nil {
		return nil, ErrMalformedObject.WrapMessage("null object")
	}
	return o, nil
}

// Matches tells if all criteria fields are equal to the object's top-level fields.
//
// Values are compared on their canonical representation.
func (o DataObject) Matches(criteria map[string]interface{}) bool {
	for k, want := range criteria {
		got, ok := o[k]
		if !ok {
			return false
		}
		gb, err1 := CanonicalSerialize(got)
		wb, err2 := CanonicalSerialize(want)
		if err1 != nil || err2 != nil || string(gb) != string(wb) {
			return false
		}
	}
	return true
}
