package types

import (
	"time"

	"github.com/google/uuid"
)

// NewSubmissionID generates a UUIDv7 submission identifier.
// Time-ordered IDs keep the journal's primary key index append-only.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewSubmissionID() SubmissionID {
	return SubmissionID(uuid.Must(uuid.NewV7()).String())
}

// NewRequestID generates a UUIDv7 request identifier for log correlation.
func NewRequestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseSubmissionID validates and converts a string to SubmissionID.
func ParseSubmissionID(s string) (SubmissionID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return SubmissionID(s), nil
}

// SubmissionIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func SubmissionIDTime(id SubmissionID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
