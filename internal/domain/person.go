package domain

import (
	"context"
	"time"
)

// BirthdaySourceRecord is a person's birth day as read from the directory.
// BirthMonthDay is "MM-DD" (a full "YYYY-MM-DD" is also accepted).
type BirthdaySourceRecord struct {
	PersonID      string
	DisplayName   *string
	Nickname      *string
	BirthMonthDay *string
}

// PersonDirectory answers questions about staff members.
type PersonDirectory interface {
	ListBirthdaySources(ctx context.Context) ([]BirthdaySourceRecord, error)
	// ResolveDisplayName returns nil when the person is unknown or has no name.
	ResolveDisplayName(ctx context.Context, personID string) (*string, error)
}

// IdentityProvider reports the acting person for a request.
type IdentityProvider interface {
	CurrentActor(ctx context.Context) (personID string, ok bool)
}

// TokenVerifier verifies a bearer token and returns the authenticated person ID.
type TokenVerifier interface {
	Verify(token string) (personID string, err error)
}

// TokenIssuer signs bearer tokens for a person.
type TokenIssuer interface {
	Issue(personID string, expiry time.Duration) (string, error)
}
