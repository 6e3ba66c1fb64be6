package models

// Request models
type RegisterClientRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	Phone        *string `json:"phone"`
	ExternalCode *string `json:"externalCode"`
}

type AccumulateRequest struct {
	ClientID    string  `json:"clientId" binding:"required"`
	Points      int64   `json:"points"`
	Description *string `json:"description"`
	Reference   string  `json:"reference"`
}

type RedeemRequest struct {
	ClientID    string  `json:"clientId" binding:"required"`
	Points      int64   `json:"points"`
	Description *string `json:"description"`
	Reference   *string `json:"reference"`
}

// RecordMovementRequest is the raw back-office entry point: the caller names
// the kind explicitly. Reference is optional for both kinds here.
type RecordMovementRequest struct {
	ClientID    string       `json:"clientId" binding:"required"`
	Kind        MovementKind `json:"kind" binding:"required"`
	Points      int64        `json:"points"`
	Description *string      `json:"description"`
	Reference   *string      `json:"reference"`
}

// Response models
type ClientResponse struct {
	Status string  `json:"status"`
	Client *Client `json:"client,omitempty"`
}

type ClientListResponse struct {
	Status  string   `json:"status"`
	Clients []Client `json:"clients"`
}

type MovementResponse struct {
	Status   string    `json:"status"`
	Movement *Movement `json:"movement,omitempty"`
}

type SummaryResponse struct {
	Status  string          `json:"status"`
	Summary *BalanceSummary `json:"summary,omitempty"`
}

type HistoryResponse struct {
	Status    string     `json:"status"`
	ClientID  string     `json:"clientId"`
	Movements []Movement `json:"movements"`
}

// RedeemSuggestion caps a redemption by sale amount and available balance.
// Advisory only: the redeem operation re-validates affordability on commit.
type RedeemSuggestion struct {
	ClientID      string `json:"clientId"`
	Available     int64  `json:"available"`
	MaxByAmount   int64  `json:"maxByAmount"`
	MaxRedeemable int64  `json:"maxRedeemable"`
}

type SuggestionResponse struct {
	Status     string            `json:"status"`
	Suggestion *RedeemSuggestion `json:"suggestion,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
