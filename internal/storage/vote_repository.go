package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/onnwee/dealrank/internal/tracing"
	"github.com/onnwee/dealrank/internal/vote"
)

// PostgresVoteStore implements vote.VoteStore backed by the votes table.
// The (deal_id, user_id) primary key enforces one active vote per voter
// per deal at the storage layer.
type PostgresVoteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresVoteStore creates a vote store over an open database handle.
func NewPostgresVoteStore(db *sql.DB, logger *slog.Logger) *PostgresVoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVoteStore{db: db, logger: logger}
}

// GetVotes returns all votes for a deal, one per voter.
func (s *PostgresVoteStore) GetVotes(ctx context.Context, dealID string) (_ []vote.Vote, err error) {
	ctx, end := tracing.StartDBSpan(ctx, "votes", tracing.DBOperationQuery)
	defer func() { end(err) }()

	query := `
		SELECT deal_id, user_id, vote_type, created_at
		FROM votes
		WHERE deal_id = $1
	`
	rows, qerr := s.db.QueryContext(ctx, query, dealID)
	if qerr != nil {
		err = fmt.Errorf("failed to fetch votes for deal %s: %w", dealID, qerr)
		return nil, err
	}
	defer rows.Close()

	var votes []vote.Vote
	for rows.Next() {
		var v vote.Vote
		var voteType string
		if serr := rows.Scan(&v.DealID, &v.UserID, &voteType, &v.CreatedAt); serr != nil {
			err = fmt.Errorf("failed to scan vote: %w", serr)
			return nil, err
		}
		v.Type, err = vote.ParseType(voteType)
		if err != nil {
			err = fmt.Errorf("stored vote for deal %s has bad type: %w", dealID, err)
			return nil, err
		}
		votes = append(votes, v)
	}
	if rerr := rows.Err(); rerr != nil {
		err = fmt.Errorf("failed to iterate votes: %w", rerr)
		return nil, err
	}
	return votes, nil
}

// UpsertVote inserts the vote, replacing any prior vote by the same
// user on the same deal.
func (s *PostgresVoteStore) UpsertVote(ctx context.Context, v vote.Vote) (err error) {
	if err = v.Validate(); err != nil {
		return err
	}

	ctx, end := tracing.StartDBSpan(ctx, "votes", tracing.DBOperationUpsert)
	defer func() { end(err) }()

	query := `
		INSERT INTO votes (deal_id, user_id, vote_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (deal_id, user_id) DO UPDATE
		SET vote_type = EXCLUDED.vote_type,
		    created_at = EXCLUDED.created_at
	`
	if _, err = s.db.ExecContext(ctx, query, v.DealID, v.UserID, string(v.Type), v.CreatedAt); err != nil {
		err = fmt.Errorf("failed to upsert vote on deal %s: %w", v.DealID, err)
		return err
	}
	return nil
}
