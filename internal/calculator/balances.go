package calculator

import (
	"fmt"

	"github.com/mmynk/godutch/internal/models"
)

// Transfer represents money one participant owes another.
type Transfer struct {
	From   string // Participant who owes
	To     string // Participant who paid the receipt
	Amount float64
}

// SettleUp turns per-person costs into transfers towards the payer.
// The payer's own share needs no transfer, and amounts within
// UnclaimedEpsilon are dropped as floating point noise.
func SettleUp(personCosts []models.PersonCost, payerID string) ([]Transfer, error) {
	found := false
	for _, pc := range personCosts {
		if pc.ParticipantID == payerID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: payer %q", ErrUnknownParticipant, payerID)
	}

	transfers := []Transfer{}
	for _, pc := range personCosts {
		if pc.ParticipantID == payerID {
			continue
		}
		if pc.Amount > UnclaimedEpsilon { // Avoid floating point noise
			transfers = append(transfers, Transfer{
				From:   pc.ParticipantID,
				To:     payerID,
				Amount: pc.Amount,
			})
		}
	}

	return transfers, nil
}
