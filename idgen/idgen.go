// Package idgen provides the identifier strategies used across srkit.
//
// Store rows and ingest requests get time-sortable UUIDv7 identifiers;
// replay resources are identified by the hash of their content so the same
// image uploaded twice keeps one identifier.
package idgen

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID
// (e.g. "rec_", "req_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is UUIDv7.
var Default Generator = UUIDv7()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// ContentHash returns the lowercase hex MD5 of data. This is the resource
// identifier the replay viewer expects, not a security primitive.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
