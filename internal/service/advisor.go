package service

import (
	"context"

	"github.com/puntosmx/loyalty-server/internal/models"
	"github.com/shopspring/decimal"
)

// SuggestMaxRedeemable computes the ceiling a point-of-sale flow may offer
// for a given sale amount: the lesser of the available balance and the sale
// amount expressed in points. The division truncates toward zero in exact
// decimal arithmetic. Advisory only; Redeem re-validates affordability on
// commit.
func (s *DefaultService) SuggestMaxRedeemable(
	ctx context.Context,
	clientID string,
	saleAmount, pointValue decimal.Decimal,
) (*models.RedeemSuggestion, error) {
	if pointValue.IsZero() {
		pointValue = s.cfg.PointValue
	}
	if pointValue.Sign() <= 0 || saleAmount.Sign() < 0 {
		return nil, ErrInvalidData
	}

	summary, err := s.Summarize(ctx, clientID)
	if err != nil {
		return nil, err
	}

	// Integer quotient, truncated toward zero, no binary rounding involved
	quotient, _ := saleAmount.QuoRem(pointValue, 0)
	maxByAmount := quotient.IntPart()

	maxRedeemable := maxByAmount
	if summary.Available < maxRedeemable {
		maxRedeemable = summary.Available
	}
	if maxRedeemable < 0 {
		maxRedeemable = 0
	}

	return &models.RedeemSuggestion{
		ClientID:      clientID,
		Available:     summary.Available,
		MaxByAmount:   maxByAmount,
		MaxRedeemable: maxRedeemable,
	}, nil
}
