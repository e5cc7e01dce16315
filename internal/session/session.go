// Package session implements the receipt-splitting flow as explicit
// transitions over a models.Session value.
//
// Transitions mutate the session they are given and return an error when the
// session is not in a state that allows them. Persisting the result is the
// caller's job. Derived values (person costs, unclaimed amount) are never
// stored on the session; Summarize recomputes them on every call.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/models"
)

var (
	ErrWrongStep         = errors.New("operation not allowed at this step")
	ErrNoReceipt         = errors.New("no receipt loaded")
	ErrNoParticipants    = errors.New("at least one participant name is required")
	ErrReceiptUnreadable = errors.New("receipt could not be read")
)

// now is swapped in tests.
var now = func() int64 { return time.Now().Unix() }

// New creates a session waiting for a receipt upload.
func New(id string) *models.Session {
	ts := now()
	return &models.Session{
		ID:           id,
		Step:         models.StepUpload,
		Participants: []models.Participant{},
		Assignments:  []models.Assignment{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// StartUpload moves to the names step while the receipt is being processed.
func StartUpload(s *models.Session) error {
	if s.Step != models.StepUpload {
		return fmt.Errorf("%w: start upload from %s", ErrWrongStep, s.Step)
	}
	s.Step = models.StepNames
	s.Loading = true
	s.Error = ""
	touch(s)
	return nil
}

// LoadReceipt stores a successfully extracted receipt. Any assignments from a
// previous receipt are dropped so that they are initialized again for this one.
// The session must still be waiting for the scan; a scan abandoned with
// BackToUpload yields ErrWrongStep and its result is discarded.
func LoadReceipt(s *models.Session, receipt *models.ReceiptAnalysisResult) error {
	if receipt == nil {
		return ErrNoReceipt
	}
	if !receipt.Readable() {
		return fmt.Errorf("%w: %s", ErrReceiptUnreadable, receipt.ErrorText)
	}
	if !scanPending(s) {
		return fmt.Errorf("%w: load receipt during %s", ErrWrongStep, s.Step)
	}
	s.Receipt = receipt
	s.Assignments = []models.Assignment{}
	s.Step = models.StepNames
	s.Loading = false
	s.Error = ""
	touch(s)
	return nil
}

// FailReceipt returns to the upload step with a user-facing error.
// Entered participants are kept. Like LoadReceipt it only applies while the
// scan is pending.
func FailReceipt(s *models.Session, message string) error {
	if !scanPending(s) {
		return fmt.Errorf("%w: fail receipt during %s", ErrWrongStep, s.Step)
	}
	s.Step = models.StepUpload
	s.Receipt = nil
	s.Assignments = []models.Assignment{}
	s.Loading = false
	s.Error = message
	touch(s)
	return nil
}

// SubmitNames records the participants and moves to the assignments step.
// Names are trimmed and blanks dropped; IDs are "person-<index>" in entry order.
// Assignments are initialized only if none exist yet, so a receipt's
// allocation is created exactly once per load.
func SubmitNames(s *models.Session, names []string) error {
	if s.Step != models.StepNames {
		return fmt.Errorf("%w: submit names during %s", ErrWrongStep, s.Step)
	}
	if !s.Receipt.Readable() {
		return ErrNoReceipt
	}

	participants := make([]models.Participant, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		participants = append(participants, models.Participant{
			ID:   fmt.Sprintf("person-%d", len(participants)),
			Name: name,
		})
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}

	s.Participants = participants
	s.Step = models.StepAssignments
	if len(s.Assignments) == 0 {
		s.Assignments = calculator.InitializeAssignments(s.Receipt.Items, s.Receipt.AdditionalCosts, s.Participants)
	}
	touch(s)
	return nil
}

// Toggle flips one participant's membership on one charge.
func Toggle(s *models.Session, chargeID, participantID string) error {
	if s.Step != models.StepAssignments {
		return fmt.Errorf("%w: toggle during %s", ErrWrongStep, s.Step)
	}
	updated, err := calculator.ToggleAssignment(s.Assignments, chargeID, participantID, s.Participants)
	if err != nil {
		return err
	}
	s.Assignments = updated
	touch(s)
	return nil
}

// BackToUpload discards the receipt and its assignments but keeps participants.
func BackToUpload(s *models.Session) {
	s.Step = models.StepUpload
	s.Receipt = nil
	s.Assignments = []models.Assignment{}
	s.Loading = false
	s.Error = ""
	touch(s)
}

// scanPending reports whether s is waiting for a StartUpload scan to finish.
func scanPending(s *models.Session) bool {
	return s.Step == models.StepNames && s.Loading
}

func touch(s *models.Session) {
	s.UpdatedAt = now()
}
