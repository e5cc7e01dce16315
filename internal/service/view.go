package service

import (
	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/session"
	"github.com/mmynk/godutch/pkg/api"
)

// newSessionView renders a session and its derived values for the wire.
func newSessionView(s *models.Session) api.SessionView {
	sum := session.Summarize(s)

	view := api.SessionView{
		ID:                 s.ID,
		Step:               sum.Step,
		Loading:            sum.Loading,
		Error:              sum.Error,
		Receipt:            s.Receipt,
		Participants:       s.Participants,
		Assignments:        s.Assignments,
		Currency:           sum.Currency,
		CurrencySymbol:     sum.CurrencySymbol,
		TotalPrice:         sum.TotalPrice,
		FormattedTotal:     sum.FormattedTotal,
		Charges:            make([]api.Charge, len(sum.Charges)),
		InformationalCosts: sum.InformationalCosts,
		PersonCosts:        make([]api.PersonCost, len(sum.People)),
		Unclaimed:          sum.Unclaimed,
		UnclaimedVisible:   sum.UnclaimedVisible,
		FormattedUnclaimed: sum.FormattedUnclaimed,
		UpdatedAt:          s.UpdatedAt,
	}
	if view.Participants == nil {
		view.Participants = []models.Participant{}
	}
	if view.Assignments == nil {
		view.Assignments = []models.Assignment{}
	}
	if view.InformationalCosts == nil {
		view.InformationalCosts = []models.AdditionalCost{}
	}
	for i, c := range sum.Charges {
		view.Charges[i] = api.Charge{
			ID:              c.ID,
			Label:           c.Label,
			Amount:          c.Amount,
			FormattedAmount: c.FormattedAmount,
			AssignedTo:      c.AssignedTo,
		}
	}
	for i, p := range sum.People {
		view.PersonCosts[i] = api.PersonCost{
			PersonCost:      p.PersonCost,
			FormattedAmount: p.FormattedAmount,
		}
	}
	return view
}

func currencySymbol(r *models.ReceiptAnalysisResult) string {
	if r == nil || r.CurrencySymbol == "" {
		return calculator.DefaultCurrencySymbol
	}
	return r.CurrencySymbol
}
