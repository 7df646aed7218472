package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Domain prefixes for dataset fingerprints. The version suffix leaves room
// for changing the hashed representation.
const (
	DomainMaster = "michishirube/master/v1"
	DomainLive   = "michishirube/live/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint identifies the normalized master dataset. Two documents that
// normalize to the same Master share a fingerprint regardless of key order
// or whitespace in the source.
func (m Master) Fingerprint() string {
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return hashWithDomain(DomainMaster, data)
}

// Fingerprint identifies the live dataset. Raw records are compacted by
// json.Marshal, so whitespace differences do not change it.
func (l Live) Fingerprint() string {
	data, err := json.Marshal(l)
	if err != nil {
		return ""
	}
	return hashWithDomain(DomainLive, data)
}

// ShortFingerprint truncates a fingerprint for log lines.
func ShortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
