// Package namespace derives the per-project install namespace and the
// on-disk layout of the product home directory.
package namespace

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/grovetools/zzz/pkg/manifest"
)

// Hash returns the namespace id of a project identity. Identical identities
// always share a namespace; collisions between distinct identities are not
// prevented (see Layout.CheckIdentity).
func Hash(id manifest.Identity) uint64 {
	return xxhash.Sum64String(id.Name + id.Description + id.Package + id.Version)
}

// Format renders a namespace id the way it appears in paths.
func Format(ns uint64) string {
	return strconv.FormatUint(ns, 10)
}

// Parse is the inverse of Format.
func Parse(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
