package models

import (
	"time"
)

// MovementKind identifies the direction of a ledger entry.
type MovementKind string

const (
	MovementAccumulate MovementKind = "accumulate"
	MovementRedeem     MovementKind = "redeem"
)

// Valid reports whether the kind is one of the two supported values.
func (k MovementKind) Valid() bool {
	return k == MovementAccumulate || k == MovementRedeem
}

// Client represents a loyalty program member
type Client struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	ExternalCode *string   `db:"external_code" json:"externalCode,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Movement represents an immutable ledger entry. Movements are append-only:
// created once by the ledger engine, never updated, removed only when the
// owning client is deleted (cascade).
type Movement struct {
	ID          string       `db:"id" json:"id"`
	ClientID    string       `db:"client_id" json:"clientId"`
	Kind        MovementKind `db:"kind" json:"kind"`
	Points      int64        `db:"points" json:"points"`
	Description *string      `db:"description" json:"description,omitempty"`
	Reference   *string      `db:"reference" json:"reference,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// BalanceSummary is derived from the movement log on demand; it is never
// persisted. Available is clamped at zero for display purposes.
type BalanceSummary struct {
	ClientID    string `json:"clientId"`
	ClientName  string `json:"clientName"`
	Accumulated int64  `json:"accumulated"`
	Redeemed    int64  `json:"redeemed"`
	Available   int64  `json:"available"`
}
