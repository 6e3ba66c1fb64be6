package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puntosmx/loyalty-server/internal/models"
)

const maxReferenceColumnLength = 64

// MemoryRepository is an in-memory Repository used by tests and local runs.
// It enforces the same constraints as the Postgres schema: positive points,
// bounded reference length, the accumulate dedup index and cascade delete.
// A single mutex serializes all operations, which also gives InClientTx its
// transactional guarantee.
type MemoryRepository struct {
	mu        sync.Mutex
	clients   map[string]models.Client
	movements []models.Movement
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		clients: make(map[string]models.Client),
	}
}

// Client directory methods
func (r *MemoryRepository) CreateClient(ctx context.Context, client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.clients {
		if existing.Email == client.Email {
			return ErrDuplicateKey
		}
		if client.ExternalCode != nil && existing.ExternalCode != nil &&
			*existing.ExternalCode == *client.ExternalCode {
			return ErrDuplicateKey
		}
	}

	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	client.CreatedAt = time.Now().UTC()

	r.clients[client.ID] = *client
	return nil
}

func (r *MemoryRepository) GetClientByID(ctx context.Context, id string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientByID(id), nil
}

func (r *MemoryRepository) GetClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if client.Email == email {
			c := client
			return &c, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]models.Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].CreatedAt.Before(clients[j].CreatedAt)
	})
	return clients, nil
}

func (r *MemoryRepository) DeleteClient(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return ErrNotFound
	}
	delete(r.clients, id)

	// Cascade: drop the client's movements
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.ClientID != id {
			kept = append(kept, m)
		}
	}
	r.movements = kept
	return nil
}

// Movement store methods
func (r *MemoryRepository) InsertMovement(ctx context.Context, movement *models.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(movement)
}

func (r *MemoryRepository) ReferenceExists(ctx context.Context, clientID, reference string, kind models.MovementKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.referenceExistsLocked(clientID, reference, kind), nil
}

// normalizeReference trims the reference; empty means "no reference".
func normalizeReference(reference string) string {
	return strings.TrimSpace(reference)
}

func (r *MemoryRepository) SumPointsByKind(ctx context.Context, clientID string, kind models.MovementKind) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sumLocked(clientID, kind), nil
}

func (r *MemoryRepository) ListMovementsByClient(ctx context.Context, clientID string) ([]models.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var movements []models.Movement
	for _, m := range r.movements {
		if m.ClientID == clientID {
			movements = append(movements, m)
		}
	}
	// Newest first
	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].CreatedAt.After(movements[j].CreatedAt)
	})
	return movements, nil
}

// InClientTx holds the repository lock for the duration of fn, so the read-
// check-write sequence inside is atomic. Inserts are staged and applied only
// if fn succeeds; an error rolls the whole unit back.
func (r *MemoryRepository) InClientTx(ctx context.Context, clientID string, fn func(Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[clientID]; !ok {
		return ErrNotFound
	}

	tx := &memTx{repo: r}
	if err := fn(tx); err != nil {
		return err
	}

	r.movements = append(r.movements, tx.staged...)
	return nil
}

// Internal helpers; callers hold r.mu.
func (r *MemoryRepository) clientByID(id string) *models.Client {
	if client, ok := r.clients[id]; ok {
		c := client
		return &c
	}
	return nil
}

func (r *MemoryRepository) insertLocked(movement *models.Movement) error {
	staged, err := r.validateLocked(movement, nil)
	if err != nil {
		return err
	}
	r.movements = append(r.movements, *staged)
	return nil
}

// validateLocked applies the schema constraints and returns the movement
// ready to append. extra holds not-yet-committed movements of an open
// transaction, which count toward uniqueness.
func (r *MemoryRepository) validateLocked(movement *models.Movement, extra []models.Movement) (*models.Movement, error) {
	if _, ok := r.clients[movement.ClientID]; !ok {
		return nil, ErrNotFound
	}
	if movement.Points <= 0 {
		return nil, ErrInvalidData
	}
	if movement.Reference != nil && len(*movement.Reference) > maxReferenceColumnLength {
		return nil, ErrInvalidData
	}

	if movement.Kind == models.MovementAccumulate && movement.Reference != nil {
		collides := func(ms []models.Movement) bool {
			for _, m := range ms {
				if m.ClientID == movement.ClientID && m.Kind == models.MovementAccumulate &&
					m.Reference != nil && *m.Reference == *movement.Reference {
					return true
				}
			}
			return false
		}
		if collides(r.movements) || collides(extra) {
			return nil, ErrDuplicateKey
		}
	}

	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	return movement, nil
}

func (r *MemoryRepository) referenceExistsLocked(clientID, reference string, kind models.MovementKind) bool {
	reference = normalizeReference(reference)
	if reference == "" {
		return false
	}
	for _, m := range r.movements {
		if m.ClientID != clientID || m.Reference == nil || *m.Reference != reference {
			continue
		}
		if kind == "" || m.Kind == kind {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) sumLocked(clientID string, kind models.MovementKind) int64 {
	var total int64
	for _, m := range r.movements {
		if m.ClientID == clientID && m.Kind == kind {
			total += m.Points
		}
	}
	return total
}

// memTx stages writes for one InClientTx unit of work.
type memTx struct {
	repo   *MemoryRepository
	staged []models.Movement
}

func (t *memTx) GetClientByID(ctx context.Context, id string) (*models.Client, error) {
	return t.repo.clientByID(id), nil
}

func (t *memTx) InsertMovement(ctx context.Context, movement *models.Movement) error {
	staged, err := t.repo.validateLocked(movement, t.staged)
	if err != nil {
		return err
	}
	t.staged = append(t.staged, *staged)
	return nil
}

func (t *memTx) ReferenceExists(ctx context.Context, clientID, reference string, kind models.MovementKind) (bool, error) {
	reference = normalizeReference(reference)
	if reference == "" {
		return false, nil
	}
	if t.repo.referenceExistsLocked(clientID, reference, kind) {
		return true, nil
	}
	for _, m := range t.staged {
		if m.ClientID == clientID && m.Reference != nil && *m.Reference == reference &&
			(kind == "" || m.Kind == kind) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) SumPointsByKind(ctx context.Context, clientID string, kind models.MovementKind) (int64, error) {
	total := t.repo.sumLocked(clientID, kind)
	for _, m := range t.staged {
		if m.ClientID == clientID && m.Kind == kind {
			total += m.Points
		}
	}
	return total, nil
}
