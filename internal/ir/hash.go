package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery   = "arangoq/query/v1"
	DomainProfile = "arangoq/profile/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryID computes the content-addressed ID of a compilation input.
// The same collection, alias and query object always produce the same ID.
func QueryID(collection, alias string, query any) (string, error) {
	obj := Object{
		M("alias", alias),
		M("collection", collection),
		M("query", query),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("QueryID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainQuery, canonical), nil
}

// ProfileHash computes a hash of a search profile registry encoding,
// so stored compilations record which profiles produced them.
func ProfileHash(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ProfileHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProfile, canonical), nil
}

// MustQueryID is like QueryID but panics on error.
// Use only in tests or when the query is known to be encodable.
func MustQueryID(collection, alias string, query any) string {
	id, err := QueryID(collection, alias, query)
	if err != nil {
		panic(err)
	}
	return id
}
