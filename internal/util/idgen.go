package util

import "github.com/google/uuid"

// NewSessionID generates a random session id (§3: "a random identifier
// generated by the initiator when starting a connection attempt").
// Backed by google/uuid, the same id-generation dependency the teacher
// pulls in transitively through pterm's interactive widgets.
func NewSessionID() string {
	return uuid.NewString()
}
