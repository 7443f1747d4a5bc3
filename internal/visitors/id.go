// Package visitors derives the anonymous visitor and session identifiers
// stored with every pageview. No cookie is set and no raw IP or user agent
// is persisted; identifiers are one-way hashes truncated to 32 hex chars.
package visitors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// IDLength is the number of hex characters kept from the SHA-256 digest.
const IDLength = 32

// DeriveVisitorID produces a stable identifier for a client from its IP
// address and user agent. The same client yields the same ID within a day's
// traffic, which is enough for unique-visitor counting without storing PII.
func DeriveVisitorID(clientIP, userAgent string) string {
	return truncatedHash(fmt.Sprintf("%s|%s", clientIP, userAgent))
}

// DeriveSessionID produces a session identifier from the visitor ID, the
// client-reported session-start flag, and the event timestamp. A fresh
// session start hashes a new timestamp in, so the same visitor gets a new
// session ID; continuation events must reuse an existing session ID instead.
func DeriveSessionID(visitorID string, isSessionStart bool, at time.Time) string {
	return truncatedHash(fmt.Sprintf("%s|%t|%d", visitorID, isSessionStart, at.UnixNano()))
}

func truncatedHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:IDLength]
}
