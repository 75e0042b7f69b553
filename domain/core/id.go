package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SessionID identifies one operator's workflow instance
type SessionID string

// NewSessionID creates a time-ordered session identifier
func NewSessionID() SessionID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return SessionID(id.String())
}

func (id SessionID) String() string {
	return string(id)
}

// ParseSessionID accepts only well-formed UUIDs
func ParseSessionID(s string) (SessionID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid session id %q: %w", s, err)
	}
	return SessionID(parsed.String()), nil
}

// ParseRecordID parses a positive database identifier from a path segment
func ParseRecordID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
