package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/onnwee/dealrank/internal/deal"
	"github.com/onnwee/dealrank/internal/tracing"
)

// PostgresDealStore implements deal.Store backed by the deals and
// deal_scores tables.
type PostgresDealStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDealStore creates a deal store over an open database handle.
func NewPostgresDealStore(db *sql.DB, logger *slog.Logger) *PostgresDealStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDealStore{db: db, logger: logger}
}

// GetDeal retrieves a deal by ID. Returns deal.ErrDealNotFound when no
// row exists.
func (s *PostgresDealStore) GetDeal(ctx context.Context, id string) (_ *deal.Deal, err error) {
	ctx, end := tracing.StartDBSpan(ctx, "deals", tracing.DBOperationQuery)
	defer func() { end(err) }()

	query := `
		SELECT id, title, posted_by, created_at, is_active
		FROM deals
		WHERE id = $1
	`
	var d deal.Deal
	err = s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Title, &d.PostedBy, &d.CreatedAt, &d.IsActive)
	if err == sql.ErrNoRows {
		return nil, deal.ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal %s: %w", id, err)
	}
	return &d, nil
}

// UpsertScore atomically inserts or fully overwrites the score row for
// a deal. Reports whether a new row was inserted.
func (s *PostgresDealStore) UpsertScore(ctx context.Context, score deal.Score) (_ bool, err error) {
	ctx, end := tracing.StartDBSpan(ctx, "deal_scores", tracing.DBOperationUpsert)
	defer func() { end(err) }()

	tx, err := beginTx(ctx, s.db)
	if err != nil {
		return false, err
	}
	defer rollback(tx, s.logger)

	var existing string
	checkQuery := `SELECT deal_id FROM deal_scores WHERE deal_id = $1`
	err = tx.QueryRowContext(ctx, checkQuery, score.DealID).Scan(&existing)

	inserted := err == sql.ErrNoRows
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check score existence: %w", err)
	}

	if inserted {
		insertQuery := `
			INSERT INTO deal_scores
				(deal_id, hot_score, wilson_score, bayesian_average,
				 quality_score, final_rank, confidence_level, last_calculated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = tx.ExecContext(ctx, insertQuery,
			score.DealID, score.HotScore, score.WilsonScore, score.BayesianAverage,
			score.QualityScore, score.FinalRank, score.ConfidenceLevel, score.LastCalculated)
		if err != nil {
			return false, fmt.Errorf("failed to insert score: %w", err)
		}
	} else {
		// Full overwrite: every column is written so no stale field
		// survives a recompute.
		updateQuery := `
			UPDATE deal_scores
			SET hot_score = $2, wilson_score = $3, bayesian_average = $4,
			    quality_score = $5, final_rank = $6, confidence_level = $7,
			    last_calculated = $8
			WHERE deal_id = $1
		`
		_, err = tx.ExecContext(ctx, updateQuery,
			score.DealID, score.HotScore, score.WilsonScore, score.BayesianAverage,
			score.QualityScore, score.FinalRank, score.ConfidenceLevel, score.LastCalculated)
		if err != nil {
			return false, fmt.Errorf("failed to update score: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit score upsert: %w", err)
	}
	return inserted, nil
}

// GetScore retrieves the score for a deal, or (nil, nil) when the deal
// has never been scored.
func (s *PostgresDealStore) GetScore(ctx context.Context, dealID string) (*deal.Score, error) {
	query := `
		SELECT deal_id, hot_score, wilson_score, bayesian_average,
		       quality_score, final_rank, confidence_level, last_calculated
		FROM deal_scores
		WHERE deal_id = $1
	`
	var sc deal.Score
	err := s.db.QueryRowContext(ctx, query, dealID).Scan(
		&sc.DealID, &sc.HotScore, &sc.WilsonScore, &sc.BayesianAverage,
		&sc.QualityScore, &sc.FinalRank, &sc.ConfidenceLevel, &sc.LastCalculated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch score for deal %s: %w", dealID, err)
	}
	return &sc, nil
}

// ListTopByRank returns active deals ordered by final_rank descending.
// Unscored deals sort last; ties break by deal ID ascending.
func (s *PostgresDealStore) ListTopByRank(ctx context.Context, limit int) (_ []deal.Ranked, err error) {
	ctx, end := tracing.StartDBSpan(ctx, "deal_scores", tracing.DBOperationQuery)
	defer func() { end(err) }()

	query := `
		SELECT d.id, d.title, d.posted_by, d.created_at, d.is_active,
		       ds.deal_id, ds.hot_score, ds.wilson_score, ds.bayesian_average,
		       ds.quality_score, ds.final_rank, ds.confidence_level, ds.last_calculated
		FROM deals d
		LEFT JOIN deal_scores ds ON ds.deal_id = d.id
		WHERE d.is_active
		ORDER BY ds.final_rank DESC NULLS LAST, d.id ASC
		LIMIT $1
	`
	rows, qerr := s.db.QueryContext(ctx, query, limit)
	if qerr != nil {
		err = fmt.Errorf("failed to list top deals: %w", qerr)
		return nil, err
	}
	defer rows.Close()

	var ranked []deal.Ranked
	for rows.Next() {
		var r deal.Ranked
		var (
			scoreDealID    sql.NullString
			hot            sql.NullFloat64
			wilson         sql.NullFloat64
			bayes          sql.NullFloat64
			quality        sql.NullFloat64
			finalRank      sql.NullFloat64
			confidence     sql.NullFloat64
			lastCalculated sql.NullTime
		)
		if serr := rows.Scan(
			&r.Deal.ID, &r.Deal.Title, &r.Deal.PostedBy, &r.Deal.CreatedAt, &r.Deal.IsActive,
			&scoreDealID, &hot, &wilson, &bayes,
			&quality, &finalRank, &confidence, &lastCalculated); serr != nil {
			err = fmt.Errorf("failed to scan ranked deal: %w", serr)
			return nil, err
		}
		if scoreDealID.Valid {
			r.Score = &deal.Score{
				DealID:          scoreDealID.String,
				HotScore:        hot.Float64,
				WilsonScore:     wilson.Float64,
				BayesianAverage: bayes.Float64,
				QualityScore:    quality.Float64,
				FinalRank:       finalRank.Float64,
				ConfidenceLevel: confidence.Float64,
				LastCalculated:  lastCalculated.Time,
			}
		}
		ranked = append(ranked, r)
	}
	if rerr := rows.Err(); rerr != nil {
		err = fmt.Errorf("failed to iterate ranked deals: %w", rerr)
		return nil, err
	}
	return ranked, nil
}

// AddDeal inserts a deal row. Used by hosts that feed the engine its
// deal records directly and by integration tests.
func (s *PostgresDealStore) AddDeal(ctx context.Context, d deal.Deal) error {
	query := `
		INSERT INTO deals (id, title, posted_by, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    posted_by = EXCLUDED.posted_by,
		    is_active = EXCLUDED.is_active
	`
	if _, err := s.db.ExecContext(ctx, query, d.ID, d.Title, d.PostedBy, d.CreatedAt, d.IsActive); err != nil {
		return fmt.Errorf("failed to insert deal %s: %w", d.ID, err)
	}
	return nil
}
