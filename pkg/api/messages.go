// Package api holds the wire messages of the godutch.v1 SessionService.
// Messages are plain structs encoded as JSON (see apiconnect.Codec).
package api

import "github.com/mmynk/godutch/internal/models"

type CreateSessionRequest struct{}

type CreateSessionResponse struct {
	SessionID string      `json:"sessionId"`
	Token     string      `json:"token"`
	Session   SessionView `json:"session"`
}

type GetSessionRequest struct{}

type SubmitParticipantsRequest struct {
	Names []string `json:"names"`
}

type ToggleAssignmentRequest struct {
	ChargeID      string `json:"chargeId"`
	ParticipantID string `json:"participantId"`
}

type BackToUploadRequest struct{}

type SettleUpRequest struct {
	PayerID string `json:"payerId"`
}

type SettleUpResponse struct {
	Transfers []Transfer `json:"transfers"`
}

// Transfer is one payment from a participant to the payer.
type Transfer struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	Amount          float64 `json:"amount"`
	FormattedAmount string  `json:"formattedAmount"`
}

// Charge is one assignable receipt line with its current assignees.
type Charge struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	Amount          float64  `json:"amount"`
	FormattedAmount string   `json:"formattedAmount"`
	AssignedTo      []string `json:"assignedTo"`
}

// PersonCost is a participant's share with its display string.
type PersonCost struct {
	models.PersonCost
	FormattedAmount string `json:"formattedAmount"`
}

// SessionView is the session state plus everything derived from it.
type SessionView struct {
	ID                 string                         `json:"id"`
	Step               models.Step                    `json:"step"`
	Loading            bool                           `json:"loading"`
	Error              string                         `json:"error,omitempty"`
	Receipt            *models.ReceiptAnalysisResult  `json:"receipt,omitempty"`
	Participants       []models.Participant           `json:"participants"`
	Assignments        []models.Assignment            `json:"assignments"`
	Currency           string                         `json:"currency,omitempty"`
	CurrencySymbol     string                         `json:"currencySymbol,omitempty"`
	TotalPrice         float64                        `json:"totalPrice"`
	FormattedTotal     string                         `json:"formattedTotal,omitempty"`
	Charges            []Charge                       `json:"charges"`
	InformationalCosts []models.AdditionalCost        `json:"informationalCosts"`
	PersonCosts        []PersonCost                   `json:"personCosts"`
	Unclaimed          float64                        `json:"unclaimed"`
	UnclaimedVisible   bool                           `json:"unclaimedVisible"`
	FormattedUnclaimed string                         `json:"formattedUnclaimed,omitempty"`
	UpdatedAt          int64                          `json:"updatedAt"`
}
