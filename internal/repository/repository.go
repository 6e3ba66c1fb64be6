package repository

import (
	"context"
	"errors"

	"github.com/puntosmx/loyalty-server/internal/models"
)

// Sentinel errors shared across all repository implementations. The service
// layer translates these into its business error taxonomy.
var (
	// ErrDuplicateKey is returned when an insert would violate a uniqueness
	// constraint (the accumulate dedup index or a unique client field).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when a referenced row does not exist, including
	// when InClientTx cannot lock the client row.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidData is returned when the store rejects a value structurally
	// (length overflow, check constraint).
	ErrInvalidData = errors.New("invalid data")
)

// Store defines the ledger operations that are valid both on the base
// connection and inside a transaction opened by InClientTx.
type Store interface {
	// GetClientByID returns (nil, nil) when the client does not exist.
	GetClientByID(ctx context.Context, id string) (*models.Client, error)

	// InsertMovement appends a movement. Returns ErrDuplicateKey if the
	// (client, reference) accumulate uniqueness would be violated.
	InsertMovement(ctx context.Context, movement *models.Movement) error

	// ReferenceExists reports whether a movement with the given reference
	// already exists for the client. An empty kind matches any kind. The
	// reference must already be normalized; callers pass trimmed values.
	ReferenceExists(ctx context.Context, clientID, reference string, kind models.MovementKind) (bool, error)

	// SumPointsByKind returns the total points for the client and kind,
	// 0 if there are none.
	SumPointsByKind(ctx context.Context, clientID string, kind models.MovementKind) (int64, error)
}

// Repository is the full persistence contract: client directory, movement
// store and the unit-of-work boundary the ledger engine commits through.
type Repository interface {
	Store

	// Client directory operations
	CreateClient(ctx context.Context, client *models.Client) error
	GetClientByEmail(ctx context.Context, email string) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	// DeleteClient removes the client and, by cascade, its movements.
	// Returns ErrNotFound if the client does not exist.
	DeleteClient(ctx context.Context, id string) error

	// ListMovementsByClient returns the client's movements newest first.
	ListMovementsByClient(ctx context.Context, clientID string) ([]models.Movement, error)

	// InClientTx runs fn inside a single transaction scoped to one client.
	// The client row is locked for the duration, so a balance read and a
	// subsequent insert performed in fn are atomic with respect to any other
	// movement for the same client. Returns ErrNotFound if the client does
	// not exist; the transaction rolls back fully if fn returns an error.
	InClientTx(ctx context.Context, clientID string, fn func(Store) error) error
}
