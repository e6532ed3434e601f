package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/onnwee/dealrank/internal/reputation"
	"github.com/onnwee/dealrank/internal/tracing"
)

// PostgresUserRatingStore implements reputation.UserRatingStore backed
// by the user_ratings table.
type PostgresUserRatingStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRatingStore creates a rating store over an open
// database handle.
func NewPostgresUserRatingStore(db *sql.DB, logger *slog.Logger) *PostgresUserRatingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRatingStore{db: db, logger: logger}
}

// GetRating retrieves a rating by user ID, or (nil, nil) when no record
// exists.
func (s *PostgresUserRatingStore) GetRating(ctx context.Context, userID string) (_ *reputation.UserRating, err error) {
	ctx, end := tracing.StartDBSpan(ctx, "user_ratings", tracing.DBOperationQuery)
	defer func() { end(err) }()

	query := `
		SELECT user_id, elo_rating, reputation_score, deals_posted,
		       vote_accuracy, last_updated
		FROM user_ratings
		WHERE user_id = $1
	`
	var r reputation.UserRating
	err = s.db.QueryRowContext(ctx, query, userID).Scan(
		&r.UserID, &r.EloRating, &r.ReputationScore, &r.DealsPosted,
		&r.VoteAccuracy, &r.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed to fetch rating for user %s: %w", userID, err)
		return nil, err
	}
	return &r, nil
}

// UpsertRating inserts or fully replaces the rating row for its user.
func (s *PostgresUserRatingStore) UpsertRating(ctx context.Context, rating reputation.UserRating) (err error) {
	ctx, end := tracing.StartDBSpan(ctx, "user_ratings", tracing.DBOperationUpsert)
	defer func() { end(err) }()

	query := `
		INSERT INTO user_ratings
			(user_id, elo_rating, reputation_score, deals_posted,
			 vote_accuracy, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET elo_rating = EXCLUDED.elo_rating,
		    reputation_score = EXCLUDED.reputation_score,
		    deals_posted = EXCLUDED.deals_posted,
		    vote_accuracy = EXCLUDED.vote_accuracy,
		    last_updated = EXCLUDED.last_updated
	`
	_, err = s.db.ExecContext(ctx, query,
		rating.UserID, rating.EloRating, rating.ReputationScore,
		rating.DealsPosted, rating.VoteAccuracy, rating.LastUpdated)
	if err != nil {
		err = fmt.Errorf("failed to upsert rating for user %s: %w", rating.UserID, err)
		return err
	}
	return nil
}

// ListTopByElo returns up to limit ratings ordered by elo descending,
// ties broken by user ID ascending.
func (s *PostgresUserRatingStore) ListTopByElo(ctx context.Context, limit int) (_ []reputation.UserRating, err error) {
	ctx, end := tracing.StartDBSpan(ctx, "user_ratings", tracing.DBOperationQuery)
	defer func() { end(err) }()

	query := `
		SELECT user_id, elo_rating, reputation_score, deals_posted,
		       vote_accuracy, last_updated
		FROM user_ratings
		ORDER BY elo_rating DESC, user_id ASC
		LIMIT $1
	`
	rows, qerr := s.db.QueryContext(ctx, query, limit)
	if qerr != nil {
		err = fmt.Errorf("failed to list top ratings: %w", qerr)
		return nil, err
	}
	defer rows.Close()

	var ratings []reputation.UserRating
	for rows.Next() {
		var r reputation.UserRating
		if serr := rows.Scan(
			&r.UserID, &r.EloRating, &r.ReputationScore, &r.DealsPosted,
			&r.VoteAccuracy, &r.LastUpdated); serr != nil {
			err = fmt.Errorf("failed to scan rating: %w", serr)
			return nil, err
		}
		ratings = append(ratings, r)
	}
	if rerr := rows.Err(); rerr != nil {
		err = fmt.Errorf("failed to iterate ratings: %w", rerr)
		return nil, err
	}
	return ratings, nil
}
