package vote

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    Type
		wantErr bool
	}{
		{"upvote", TypeUp, false},
		{"downvote", TypeDown, false},
		{"sideways", "", true},
		{"", "", true},
		{"UPVOTE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidVoteType) {
					t.Errorf("ParseType(%q) error = %v, want ErrInvalidVoteType", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseType(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestUpsertVoteReplaces(t *testing.T) {
	store := NewInMemoryVoteStore()
	ctx := context.Background()

	first := Vote{DealID: "d1", UserID: "u1", Type: TypeUp, CreatedAt: time.Now()}
	if err := store.UpsertVote(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := Vote{DealID: "d1", UserID: "u1", Type: TypeDown, CreatedAt: time.Now()}
	if err := store.UpsertVote(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	votes, err := store.GetVotes(ctx, "d1")
	if err != nil {
		t.Fatalf("GetVotes failed: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected exactly one vote row per (deal, user), got %d", len(votes))
	}
	if votes[0].Type != TypeDown {
		t.Errorf("vote type = %v, want the second vote's type %v", votes[0].Type, TypeDown)
	}
}

func TestUpsertVoteValidation(t *testing.T) {
	store := NewInMemoryVoteStore()
	ctx := context.Background()

	tests := []struct {
		name    string
		vote    Vote
		wantErr error
	}{
		{"missing deal id", Vote{UserID: "u1", Type: TypeUp}, ErrEmptyDealID},
		{"missing user id", Vote{DealID: "d1", Type: TypeUp}, ErrEmptyUserID},
		{"bad vote type", Vote{DealID: "d1", UserID: "u1", Type: "meh"}, ErrInvalidVoteType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.UpsertVote(ctx, tt.vote); !errors.Is(err, tt.wantErr) {
				t.Errorf("UpsertVote error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if store.CountVotes("d1") != 0 {
		t.Error("invalid votes must be rejected before persistence")
	}
}

func TestGetVotesIsolatesDeals(t *testing.T) {
	store := NewInMemoryVoteStore()
	ctx := context.Background()

	if err := store.UpsertVote(ctx, Vote{DealID: "d1", UserID: "u1", Type: TypeUp}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertVote(ctx, Vote{DealID: "d2", UserID: "u1", Type: TypeDown}); err != nil {
		t.Fatal(err)
	}

	votes, err := store.GetVotes(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if len(votes) != 1 || votes[0].DealID != "d1" {
		t.Errorf("GetVotes(d1) = %+v, want only d1 votes", votes)
	}
}
