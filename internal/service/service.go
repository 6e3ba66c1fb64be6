package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/puntosmx/loyalty-server/internal/config"
	"github.com/puntosmx/loyalty-server/internal/models"
	"github.com/puntosmx/loyalty-server/internal/repository"
	"github.com/shopspring/decimal"
)

// Service defines all the business logic operations
type Service interface {
	// Client directory
	RegisterClient(ctx context.Context, req models.RegisterClientRequest) (*models.Client, error)
	GetClient(ctx context.Context, clientID string) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	DeleteClient(ctx context.Context, clientID string) error

	// Ledger operations
	Accumulate(ctx context.Context, req models.AccumulateRequest) (*models.Movement, error)
	Redeem(ctx context.Context, req models.RedeemRequest) (*models.Movement, error)
	RecordMovement(ctx context.Context, req models.RecordMovementRequest) (*models.Movement, error)
	Summarize(ctx context.Context, clientID string) (*models.BalanceSummary, error)
	History(ctx context.Context, clientID string) ([]models.Movement, error)

	// Redemption advisor. A zero pointValue means "use the configured rate".
	SuggestMaxRedeemable(ctx context.Context, clientID string, saleAmount, pointValue decimal.Decimal) (*models.RedeemSuggestion, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo repository.Repository
	cfg  config.LedgerConfig
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, cfg config.LedgerConfig) Service {
	return &DefaultService{
		repo: repo,
		cfg:  cfg,
	}
}

// Client directory methods
func (s *DefaultService) RegisterClient(ctx context.Context, req models.RegisterClientRequest) (*models.Client, error) {
	// Check for an existing registration first for a friendlier error; the
	// unique constraints remain the source of truth.
	existing, err := s.repo.GetClientByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking client existence: %w", err)
	}
	if existing != nil {
		return nil, ErrClientExists
	}

	client := &models.Client{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        req.Phone,
		ExternalCode: req.ExternalCode,
	}

	if err := s.repo.CreateClient(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrClientExists
		}
		return nil, fmt.Errorf("error creating client: %w", err)
	}

	return client, nil
}

func (s *DefaultService) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	return s.resolveClient(ctx, clientID)
}

func (s *DefaultService) ListClients(ctx context.Context) ([]models.Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing clients: %w", err)
	}
	return clients, nil
}

func (s *DefaultService) DeleteClient(ctx context.Context, clientID string) error {
	if err := s.repo.DeleteClient(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("error deleting client: %w", err)
	}
	return nil
}

// Summarize recomputes the balance from the movement log. Available is
// clamped at zero here because this is the spendable balance shown to
// callers; the redeem affordability check works on the raw difference.
func (s *DefaultService) Summarize(ctx context.Context, clientID string) (*models.BalanceSummary, error) {
	client, err := s.resolveClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	accumulated, err := s.repo.SumPointsByKind(ctx, clientID, models.MovementAccumulate)
	if err != nil {
		return nil, fmt.Errorf("error summing accumulated points: %w", err)
	}
	redeemed, err := s.repo.SumPointsByKind(ctx, clientID, models.MovementRedeem)
	if err != nil {
		return nil, fmt.Errorf("error summing redeemed points: %w", err)
	}

	available := accumulated - redeemed
	if available < 0 {
		available = 0
	}

	return &models.BalanceSummary{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Accumulated: accumulated,
		Redeemed:    redeemed,
		Available:   available,
	}, nil
}

// History returns the client's movements, newest first.
func (s *DefaultService) History(ctx context.Context, clientID string) ([]models.Movement, error) {
	if _, err := s.resolveClient(ctx, clientID); err != nil {
		return nil, err
	}

	movements, err := s.repo.ListMovementsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("error listing movements: %w", err)
	}
	return movements, nil
}

// Helper methods
func (s *DefaultService) resolveClient(ctx context.Context, clientID string) (*models.Client, error) {
	client, err := s.repo.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("error getting client: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// normalizeReference trims the reference and treats an empty result as
// absent. Length is validated against the configured maximum.
func (s *DefaultService) normalizeReference(reference *string) (*string, error) {
	if reference == nil {
		return nil, nil
	}
	ref := strings.TrimSpace(*reference)
	if ref == "" {
		return nil, nil
	}
	if len(ref) > s.cfg.MaxReferenceLength {
		return nil, &ReferenceTooLongError{Reference: ref, MaxLength: s.cfg.MaxReferenceLength}
	}
	return &ref, nil
}
