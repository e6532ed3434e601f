// Package vote provides vote records and the reputation-weighted vote
// aggregation that feeds the ranking engine.
package vote

import (
	"errors"
	"fmt"
	"time"
)

// Type is the direction of a vote.
type Type string

// Valid vote types.
const (
	TypeUp   Type = "upvote"
	TypeDown Type = "downvote"
)

// Synthetic quality ratings on the implicit 1-5 scale, letting the
// Bayesian average reuse binary vote data as a pseudo-rating signal.
const (
	QualityRatingUp   = 4.0
	QualityRatingDown = 2.0
)

// Validation errors.
var (
	ErrInvalidVoteType = errors.New("invalid vote type: must be upvote or downvote")
	ErrEmptyDealID     = errors.New("deal id must not be empty")
	ErrEmptyUserID     = errors.New("user id must not be empty")
)

// ParseType parses a vote type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeUp, TypeDown:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidVoteType, s)
	}
}

// Valid reports whether t is a known vote type.
func (t Type) Valid() bool {
	return t == TypeUp || t == TypeDown
}

// Vote is one user's active vote on one deal. At most one vote exists
// per (deal_id, user_id) pair; a repeat vote replaces the prior one.
type Vote struct {
	DealID    string    `json:"deal_id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the vote's fields before persistence.
func (v Vote) Validate() error {
	if v.DealID == "" {
		return ErrEmptyDealID
	}
	if v.UserID == "" {
		return ErrEmptyUserID
	}
	if !v.Type.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidVoteType, v.Type)
	}
	return nil
}
