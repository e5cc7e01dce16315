package models

// Step identifies which stage of the split a session is in.
type Step string

const (
	// StepUpload waits for a receipt image.
	StepUpload Step = "upload"
	// StepNames collects participant names while the receipt is processed.
	StepNames Step = "names"
	// StepAssignments assigns charges to participants.
	StepAssignments Step = "assignments"
)

// Participant represents a named person splitting the receipt.
type Participant struct {
	// ID is unique within a session ("person-<index>", in entry order).
	ID string `json:"id"`

	// Name is the display name as entered.
	Name string `json:"name"`
}

// Assignment maps one assignable charge to the participants responsible for it.
// If several participants are assigned, the charge is split equally among them.
type Assignment struct {
	// ChargeID is "item-<i>" or "additional-cost-<j>".
	ChargeID string `json:"itemId"`

	// AssignedTo holds participant IDs. Order is irrelevant; duplicates are not allowed.
	AssignedTo []string `json:"assignedTo"`
}

// PersonCost is one participant's accumulated share.
// It is derived from assignments and never stored.
type PersonCost struct {
	ParticipantID string  `json:"personId"`
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
}

// Session is the application state of one receipt split.
// It is passed by reference to the transitions in the session package and
// persisted by the storage layer after every change.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string `json:"id"`

	// Step is the current stage of the split.
	Step Step `json:"step"`

	// Receipt is the loaded receipt, nil until extraction succeeds.
	Receipt *ReceiptAnalysisResult `json:"receipt,omitempty"`

	// Participants are kept in entry order. They survive going back to upload.
	Participants []Participant `json:"participants"`

	// Assignments has exactly one record per assignable charge once
	// initialized, and is empty otherwise.
	Assignments []Assignment `json:"assignments"`

	// Loading is true while the Receipt Source is working.
	Loading bool `json:"loading"`

	// Error is the last user-facing receipt error, if any.
	Error string `json:"error,omitempty"`

	// CreatedAt is the Unix timestamp when the session was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last transition.
	UpdatedAt int64 `json:"updatedAt"`
}
