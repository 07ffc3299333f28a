package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainSnapshot = "buildcheck/snapshot/v1"
	DomainCatalog  = "buildcheck/catalog/v1"
	DomainSeed     = "buildcheck/seed/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// SnapshotID computes the content-addressed ID of a report.
// Reports are pure functions of the address and the rule/engine versions,
// so the same inputs always yield the same ID.
func SnapshotID(addressKey, catalogVersion string) (string, error) {
	obj := map[string]any{
		"address_key":     addressKey,
		"catalog_version": catalogVersion,
		"engine_version":  EngineVersion,
		"schema_version":  SchemaVersion,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SnapshotID: failed to marshal: %w", err)
	}
	return hex.EncodeToString(hashWithDomain(DomainSnapshot, canonical)), nil
}

// MustSnapshotID is like SnapshotID but panics on error.
func MustSnapshotID(addressKey, catalogVersion string) string {
	id, err := SnapshotID(addressKey, catalogVersion)
	if err != nil {
		panic(err)
	}
	return id
}

// CatalogVersion hashes the canonical form of a rule catalog.
// The result is truncated to 16 hex characters for display.
func CatalogVersion(canonical []byte) string {
	return hex.EncodeToString(hashWithDomain(DomainCatalog, canonical))[:16]
}

// AddressSeed derives a 64-bit seed for one component of a report.
// Distinct components draw from independent streams for the same address.
func AddressSeed(component, addressKey string) uint64 {
	sum := hashWithDomain(DomainSeed+"/"+component, []byte(addressKey))
	return binary.BigEndian.Uint64(sum[:8])
}
