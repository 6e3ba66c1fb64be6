package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/puntosmx/loyalty-server/internal/models"
	"github.com/puntosmx/loyalty-server/internal/repository"
	"go.uber.org/zap"
)

// Accumulate credits points against a purchase ticket. The reference is
// mandatory: it is the anti-double-capture key, so the same ticket can never
// be accumulated twice for a client.
func (s *DefaultService) Accumulate(ctx context.Context, req models.AccumulateRequest) (*models.Movement, error) {
	return s.accumulate(ctx, req.ClientID, req.Points, req.Description, &req.Reference, true)
}

// Redeem debits points after re-validating affordability inside a single
// unit of work, so two concurrent redemptions cannot jointly overdraw.
func (s *DefaultService) Redeem(ctx context.Context, req models.RedeemRequest) (*models.Movement, error) {
	return s.redeem(ctx, req.ClientID, req.Points, req.Description, req.Reference)
}

// RecordMovement is the raw back-office entry point: the caller names the
// kind. Unlike Accumulate, the reference is optional here; the duplicate
// guard still applies when one is present, and redemptions remain subject to
// the affordability check.
func (s *DefaultService) RecordMovement(ctx context.Context, req models.RecordMovementRequest) (*models.Movement, error) {
	switch req.Kind {
	case models.MovementAccumulate:
		return s.accumulate(ctx, req.ClientID, req.Points, req.Description, req.Reference, false)
	case models.MovementRedeem:
		return s.redeem(ctx, req.ClientID, req.Points, req.Description, req.Reference)
	default:
		return nil, ErrInvalidData
	}
}

func (s *DefaultService) accumulate(
	ctx context.Context,
	clientID string,
	points int64,
	description *string,
	reference *string,
	requireReference bool,
) (*models.Movement, error) {
	if _, err := s.resolveClient(ctx, clientID); err != nil {
		return nil, err
	}
	if points <= 0 {
		return nil, ErrInvalidQuantity
	}

	ref, err := s.normalizeReference(reference)
	if err != nil {
		return nil, err
	}
	if ref == nil && requireReference {
		return nil, ErrMissingReference
	}

	// Pre-check the duplicate guard for a friendlier error before paying for
	// a failed write. The unique index remains the source of truth.
	if ref != nil {
		exists, err := s.repo.ReferenceExists(ctx, clientID, *ref, models.MovementAccumulate)
		if err != nil {
			return nil, fmt.Errorf("error checking reference: %w", err)
		}
		if exists {
			return nil, &DuplicateMovementError{ClientID: clientID, Reference: *ref}
		}
	}

	movement := &models.Movement{
		ClientID:    clientID,
		Kind:        models.MovementAccumulate,
		Points:      points,
		Description: description,
		Reference:   ref,
	}

	if err := s.repo.InsertMovement(ctx, movement); err != nil {
		return nil, s.translateStoreError(err, clientID, ref)
	}

	return movement, nil
}

func (s *DefaultService) redeem(
	ctx context.Context,
	clientID string,
	points int64,
	description *string,
	reference *string,
) (*models.Movement, error) {
	if points <= 0 {
		return nil, ErrInvalidQuantity
	}

	ref, err := s.normalizeReference(reference)
	if err != nil {
		return nil, err
	}

	movement := &models.Movement{
		ClientID:    clientID,
		Kind:        models.MovementRedeem,
		Points:      points,
		Description: description,
		Reference:   ref,
	}

	// Balance read and insert run under the client lock. The raw signed
	// difference is used here: a ledger already in deficit keeps rejecting
	// redemptions even though the displayed balance is clamped at zero.
	err = s.repo.InClientTx(ctx, clientID, func(store repository.Store) error {
		accumulated, err := store.SumPointsByKind(ctx, clientID, models.MovementAccumulate)
		if err != nil {
			return fmt.Errorf("error summing accumulated points: %w", err)
		}
		redeemed, err := store.SumPointsByKind(ctx, clientID, models.MovementRedeem)
		if err != nil {
			return fmt.Errorf("error summing redeemed points: %w", err)
		}

		available := accumulated - redeemed
		if points > available {
			reported := available
			if reported < 0 {
				reported = 0
			}
			return &InsufficientBalanceError{
				ClientID:  clientID,
				Requested: points,
				Available: reported,
			}
		}

		return store.InsertMovement(ctx, movement)
	})
	if err != nil {
		return nil, s.translateStoreError(err, clientID, ref)
	}

	return movement, nil
}

// translateStoreError maps repository sentinels onto the business taxonomy.
// Race losers on the unique index come out as the same DuplicateMovement the
// pre-check produces; anything unclassified is logged and surfaced as-is so
// the caller sees an internal failure, never retried here.
func (s *DefaultService) translateStoreError(err error, clientID string, reference *string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicateKey):
		ref := ""
		if reference != nil {
			ref = *reference
		}
		return &DuplicateMovementError{ClientID: clientID, Reference: ref}
	case errors.Is(err, repository.ErrNotFound):
		return ErrClientNotFound
	case errors.Is(err, repository.ErrInvalidData):
		return ErrInvalidData
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidData):
		return err
	default:
		zap.L().Error("movement write failed",
			zap.String("client_id", clientID),
			zap.Error(err))
		return err
	}
}
