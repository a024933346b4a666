package model

import (
	"encoding/hex"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	blake2b "github.com/minio/blake2b-simd"
)

const (
	// HashPrefix is the leading character of all content-addressed keys
	HashPrefix = "#"

	// DigestSize in bytes of the content digest
	DigestSize = 20
)

var hashRex = regexp.MustCompile(`^#[0-9a-f]{40}$`)

// canonical serialization: map keys sorted at every level, numbers kept verbatim
var canonical = jsoniter.Config{
	SortMapKeys:            true,
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Hash is the key of a content-addressed object, e.g. "#5496cf226542fcceccf89056f0d27564abc88c99".
//
// The zero value stands for "no object".
type Hash string

func (h Hash) String() string {
	return string(h)
}

// IsZero tells if this hash refers to no object
func (h Hash) IsZero() bool {
	return h == ""
}

// Validate the format of a hash
func (h Hash) Validate() error {
	if !hashRex.MatchString(string(h)) {
		return ErrInvalidHash.WrapMessage("%q", string(h))
	}
	return nil
}

// IsHashKey tells if a storage key looks like a content-addressed key
func IsHashKey(key string) bool {
	return strings.HasPrefix(key, HashPrefix)
}

// Digest computes the hash of some canonical payload
func Digest(data []byte) Hash {
	hasher, err := blake2b.New(&blake2b.Config{Size: DigestSize})
	if err != nil {
		// only fails on invalid configs
		panic(err)
	}
	_, _ = hasher.Write(data)
	return Hash(HashPrefix + hex.EncodeToString(hasher.Sum(nil)))
}

// CanonicalSerialize renders a value as JSON with sorted map keys.
//
// Values are first flattened to generic maps so that struct field declaration order does not matter.
func CanonicalSerialize(v interface{}) ([]byte, error) {
	data, err := canonical.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := canonical.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return canonical.Marshal(raw)
}

// Unmarshal decodes a canonical payload
func Unmarshal(data []byte, v interface{}) error {
	return canonical.Unmarshal(data, v)
}
