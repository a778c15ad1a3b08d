package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainArtifact = "proofcheck/artifact/v1"
	DomainReceipt  = "proofcheck/receipt/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RawDigest is the plain SHA-256 of the artifact bytes as read from disk.
// It changes with whitespace and key order; use CanonicalDigest to identify
// the document content.
func RawDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalDigest computes the content-addressed identity of a document.
// Two serializations of the same document (JSON or YAML, any key order or
// whitespace) produce the same digest.
func CanonicalDigest(doc Document) (string, error) {
	canonical, err := CanonicalJSON(doc)
	if err != nil {
		return "", fmt.Errorf("CanonicalDigest: %w", err)
	}
	return hashWithDomain(DomainArtifact, canonical), nil
}

// ReceiptHash identifies one verification outcome: the same document checked
// by the same verifier version with the same per-check outcomes always yields
// the same hash. Used by the ledger for idempotent recording.
func ReceiptHash(canonicalDigest, mode string, outcomes map[string]bool) (string, error) {
	checks := make(map[string]any, len(outcomes))
	for name, pass := range outcomes {
		checks[name] = pass
	}
	obj := map[string]any{
		"artifact": canonicalDigest,
		"checks":   checks,
		"mode":     mode,
		"verifier": VerifierVersion,
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("ReceiptHash: failed to marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("ReceiptHash: %w", err)
	}
	return hashWithDomain(DomainReceipt, canonical), nil
}

// MustCanonicalDigest is like CanonicalDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCanonicalDigest(doc Document) string {
	digest, err := CanonicalDigest(doc)
	if err != nil {
		panic(err)
	}
	return digest
}
