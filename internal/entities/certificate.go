package entities

import (
	"encoding/json"
	"time"
)

// InventoryEntry is a single certificate record of the load balancer
// inventory. Only the common name is relevant to the audit.
type InventoryEntry struct {
	CommonName string `json:"commonName"`
}

// CertificateFacts holds what a live TLS handshake revealed about
// the leaf certificate presented for a hostname.
type CertificateFacts struct {
	NotBefore  time.Time `json:"not_before"`
	NotAfter   time.Time `json:"not_after"`
	CommonName string    `json:"common_name"`
	IssuerOrg  string    `json:"issuer_org"`
}

// Tag is a single compliance finding.
type Tag uint8

// Known compliance findings.
const (
	// TagFlaggedCA is set when a flagged issuer signed the certificate
	// on or before the policy deadline.
	TagFlaggedCA Tag = 1 << iota
	// TagExpired is set when the certificate is past its validity window.
	TagExpired
)

var allTags = []Tag{TagFlaggedCA, TagExpired}

// String returns string representation of the Tag.
func (t Tag) String() string {
	switch t {
	case TagFlaggedCA:
		return "flagged_ca"
	case TagExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Tags is a set of compliance findings. The zero value is an empty set
// and means the certificate is compliant.
type Tags uint8

// Add returns the set with t included.
func (ts Tags) Add(t Tag) Tags {
	return ts | Tags(t)
}

// Has reports whether t is in the set.
func (ts Tags) Has(t Tag) bool {
	return ts&Tags(t) != 0
}

// Empty reports whether no finding applies.
func (ts Tags) Empty() bool {
	return ts == 0
}

// List returns the set members in a stable order.
func (ts Tags) List() []Tag {
	list := make([]Tag, 0, len(allTags))
	for _, t := range allTags {
		if ts.Has(t) {
			list = append(list, t)
		}
	}
	return list
}

// MarshalJSON encodes the set as a list of tag names.
func (ts Tags) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(allTags))
	for _, t := range ts.List() {
		names = append(names, t.String())
	}
	return json.Marshal(names)
}

// Outcome is the classification of a single inspected certificate.
type Outcome struct {
	CertificateFacts
	Tags Tags `json:"tags"`
}
