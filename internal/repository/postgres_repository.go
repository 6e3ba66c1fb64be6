package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/puntosmx/loyalty-server/internal/models"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pgStore
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		pgStore: pgStore{q: db},
		db:      db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// translateError maps driver-level constraint failures onto the repository
// sentinels so no raw pq error leaks past this package.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrDuplicateKey
		case "23503": // foreign_key_violation: client removed mid-flight
			return ErrNotFound
		case "23514", "22001": // check_violation, string_data_right_truncation
			return ErrInvalidData
		}
	}

	return err
}

// Client directory methods
func (r *PostgresRepository) CreateClient(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, name, email, phone, external_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// Generate a new UUID if not provided
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	client.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		client.ID, client.Name, client.Email, client.Phone, client.ExternalCode, client.CreatedAt)

	return translateError(err)
}

func (r *PostgresRepository) GetClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	query := `SELECT * FROM clients WHERE email = $1`

	var client models.Client
	err := r.db.GetContext(ctx, &client, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Client not found
		}
		return nil, err
	}

	return &client, nil
}

func (r *PostgresRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	query := `SELECT * FROM clients ORDER BY created_at`

	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, err
	}

	return clients, nil
}

func (r *PostgresRepository) DeleteClient(ctx context.Context, id string) error {
	// Movements go with the client via ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Movement store methods
func (r *PostgresRepository) ListMovementsByClient(ctx context.Context, clientID string) ([]models.Movement, error) {
	query := `
		SELECT * FROM movements
		WHERE client_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var movements []models.Movement
	if err := r.db.SelectContext(ctx, &movements, query, clientID); err != nil {
		return nil, err
	}

	return movements, nil
}

// InClientTx runs fn in a transaction holding a lock on the client row. Every
// movement write for a client goes through this lock, so the balance read and
// the insert inside fn observe a stable ledger: two concurrent redemptions
// against the same balance serialize instead of jointly overdrawing.
func (r *PostgresRepository) InClientTx(ctx context.Context, clientID string, fn func(Store) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM clients WHERE id = $1 FOR UPDATE`, clientID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}

	if err = fn(&pgStore{q: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// pgStore implements Store against either the base connection or an open
// transaction.
type pgStore struct {
	q sqlx.ExtContext
}

func (s *pgStore) GetClientByID(ctx context.Context, id string) (*models.Client, error) {
	query := `SELECT * FROM clients WHERE id = $1`

	var client models.Client
	err := sqlx.GetContext(ctx, s.q, &client, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Client not found
		}
		return nil, err
	}

	return &client, nil
}

func (s *pgStore) InsertMovement(ctx context.Context, movement *models.Movement) error {
	query := `
		INSERT INTO movements (id, client_id, kind, points, description, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// Generate a new UUID if not provided
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx, query,
		movement.ID, movement.ClientID, movement.Kind, movement.Points,
		movement.Description, movement.Reference, movement.CreatedAt)

	return translateError(err)
}

func (s *pgStore) ReferenceExists(ctx context.Context, clientID, reference string, kind models.MovementKind) (bool, error) {
	// An empty reference is "no reference" and never collides
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return false, nil
	}

	query := `SELECT EXISTS(SELECT 1 FROM movements WHERE client_id = $1 AND reference = $2)`
	args := []interface{}{clientID, reference}

	if kind != "" {
		query = `SELECT EXISTS(SELECT 1 FROM movements WHERE client_id = $1 AND reference = $2 AND kind = $3)`
		args = append(args, kind)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, s.q, &exists, query, args...); err != nil {
		return false, err
	}

	return exists, nil
}

func (s *pgStore) SumPointsByKind(ctx context.Context, clientID string, kind models.MovementKind) (int64, error) {
	query := `SELECT COALESCE(SUM(points), 0) FROM movements WHERE client_id = $1 AND kind = $2`

	var total int64
	if err := sqlx.GetContext(ctx, s.q, &total, query, clientID, kind); err != nil {
		return 0, err
	}

	return total, nil
}
