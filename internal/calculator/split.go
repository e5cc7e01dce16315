package calculator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/godutch/internal/models"
)

// UnclaimedEpsilon is the smallest unclaimed amount worth reporting.
// Anything at or below it is floating point noise.
const UnclaimedEpsilon = 0.01

var (
	ErrUnknownCharge      = errors.New("unknown charge")
	ErrUnknownParticipant = errors.New("unknown participant")
)

// InitializeAssignments creates one assignment per assignable charge.
// Items start unassigned. Flagged additional costs start assigned to every
// participant present right now; participants added later are not added to them.
// Unflagged additional costs get no assignment.
func InitializeAssignments(items []models.ReceiptItem, costs []models.AdditionalCost, participants []models.Participant) []models.Assignment {
	charges := Charges(items, costs)
	assignments := make([]models.Assignment, 0, len(charges))
	for _, charge := range charges {
		assignedTo := []string{}
		if charge.Kind == KindAdditionalCost {
			for _, p := range participants {
				assignedTo = append(assignedTo, p.ID)
			}
		}
		assignments = append(assignments, models.Assignment{
			ChargeID:   charge.ID,
			AssignedTo: assignedTo,
		})
	}
	return assignments
}

// ToggleAssignment adds participantID to the charge's assignees, or removes it
// if already present. It returns a new collection and leaves the input untouched.
// Both references must exist; there is no implicit creation.
func ToggleAssignment(assignments []models.Assignment, chargeID, participantID string, participants []models.Participant) ([]models.Assignment, error) {
	if !slices.ContainsFunc(participants, func(p models.Participant) bool { return p.ID == participantID }) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParticipant, participantID)
	}

	idx := slices.IndexFunc(assignments, func(a models.Assignment) bool { return a.ChargeID == chargeID })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharge, chargeID)
	}

	updated := make([]models.Assignment, len(assignments))
	for i, a := range assignments {
		updated[i] = models.Assignment{
			ChargeID:   a.ChargeID,
			AssignedTo: slices.Clone(a.AssignedTo),
		}
	}

	target := &updated[idx]
	if pos := slices.Index(target.AssignedTo, participantID); pos >= 0 {
		target.AssignedTo = slices.Delete(target.AssignedTo, pos, pos+1)
	} else {
		target.AssignedTo = append(target.AssignedTo, participantID)
	}
	if target.AssignedTo == nil {
		target.AssignedTo = []string{}
	}

	return updated, nil
}

// ComputePersonCosts returns one PersonCost per participant, in participant order.
//
// Algorithm:
// - Each charge with k assignees adds amount/k to every assignee
// - Charges with no assignees add nothing (their value stays unclaimed)
// - No rounding is applied; rounding is a display concern
func ComputePersonCosts(items []models.ReceiptItem, costs []models.AdditionalCost, assignments []models.Assignment, participants []models.Participant) []models.PersonCost {
	personCosts := make([]models.PersonCost, len(participants))
	index := make(map[string]int, len(participants))
	for i, p := range participants {
		personCosts[i] = models.PersonCost{ParticipantID: p.ID, Name: p.Name}
		index[p.ID] = i
	}

	assignedTo := make(map[string][]string, len(assignments))
	for _, a := range assignments {
		assignedTo[a.ChargeID] = a.AssignedTo
	}

	for _, charge := range Charges(items, costs) {
		assignees := assignedTo[charge.ID]
		if len(assignees) == 0 {
			continue
		}

		// Split charge among assigned people
		perPersonAmount := charge.Amount / float64(len(assignees))
		for _, id := range assignees {
			if i, ok := index[id]; ok {
				personCosts[i].Amount += perPersonAmount
			}
		}
	}

	return personCosts
}

// ComputeUnclaimed returns the part of totalPrice not covered by personCosts.
// The result is raw and may carry floating point noise; see SettledUnclaimed.
func ComputeUnclaimed(totalPrice float64, personCosts []models.PersonCost) float64 {
	var assigned float64
	for _, pc := range personCosts {
		assigned += pc.Amount
	}
	return totalPrice - assigned
}

// SettledUnclaimed is ComputeUnclaimed with noise below UnclaimedEpsilon reported as zero.
func SettledUnclaimed(totalPrice float64, personCosts []models.PersonCost) float64 {
	unclaimed := ComputeUnclaimed(totalPrice, personCosts)
	if IsNegligible(unclaimed) {
		return 0
	}
	return unclaimed
}

// IsNegligible reports whether amount is within UnclaimedEpsilon of zero.
func IsNegligible(amount float64) bool {
	return amount <= UnclaimedEpsilon && amount >= -UnclaimedEpsilon
}
