package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a PostgreSQL-backed RecordStore.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL record store on top of an existing pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("subscription: nil pgx pool")
	}
	return &PGStore{pool: pool}
}

const recordColumns = "user_id, provider_subscription_id, canceled, created_at, updated_at"

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(&rec.UserID, &rec.ProviderSubscriptionID, &rec.Canceled, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PGStore) Create(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscription_records (user_id, provider_subscription_id, canceled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.UserID, rec.ProviderSubscriptionID, rec.Canceled, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, userID uuid.UUID, providerSubscriptionID string) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM subscription_records WHERE user_id = $1 AND provider_subscription_id = $2",
		userID, providerSubscriptionID,
	)
	return scanRecord(row)
}

func (s *PGStore) Save(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE subscription_records SET canceled = $3, updated_at = $4
		 WHERE user_id = $1 AND provider_subscription_id = $2`,
		rec.UserID, rec.ProviderSubscriptionID, rec.Canceled, rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+recordColumns+" FROM subscription_records WHERE user_id = $1 ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.UserID, &rec.ProviderSubscriptionID, &rec.Canceled, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PGStore) ActiveForUser(ctx context.Context, userID uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM subscription_records
		 WHERE user_id = $1 AND canceled = FALSE
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	return scanRecord(row)
}
