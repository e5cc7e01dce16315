package session

import (
	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/models"
)

// ChargeSummary is one assignable charge as the presentation layer shows it.
type ChargeSummary struct {
	ID              string
	Label           string
	Amount          float64
	FormattedAmount string
	AssignedTo      []string
}

// PersonSummary is one participant's share.
type PersonSummary struct {
	models.PersonCost
	FormattedAmount string
}

// Summary is the derived state of a session.
type Summary struct {
	Step           models.Step
	Loading        bool
	Error          string
	Currency       string
	CurrencySymbol string
	TotalPrice     float64
	FormattedTotal string
	Charges        []ChargeSummary
	People         []PersonSummary

	// InformationalCosts are unflagged additional costs, shown but never allocated.
	InformationalCosts []models.AdditionalCost

	// Unclaimed is zero when within calculator.UnclaimedEpsilon.
	Unclaimed          float64
	UnclaimedVisible   bool
	FormattedUnclaimed string
}

// Summarize recomputes the derived state of s.
func Summarize(s *models.Session) Summary {
	sum := Summary{
		Step:    s.Step,
		Loading: s.Loading,
		Error:   s.Error,
	}
	if s.Receipt == nil {
		return sum
	}

	r := s.Receipt
	symbol := r.CurrencySymbol
	if symbol == "" {
		symbol = calculator.DefaultCurrencySymbol
	}
	sum.Currency = r.Currency
	sum.CurrencySymbol = symbol
	sum.TotalPrice = r.TotalPrice
	sum.FormattedTotal = calculator.FormatMoney(symbol, r.TotalPrice)

	assignedTo := make(map[string][]string, len(s.Assignments))
	for _, a := range s.Assignments {
		assignedTo[a.ChargeID] = a.AssignedTo
	}
	for _, c := range calculator.Charges(r.Items, r.AdditionalCosts) {
		assignees := assignedTo[c.ID]
		if assignees == nil {
			assignees = []string{}
		}
		sum.Charges = append(sum.Charges, ChargeSummary{
			ID:              c.ID,
			Label:           calculator.ChargeLabel(c),
			Amount:          c.Amount,
			FormattedAmount: calculator.FormatMoney(symbol, c.Amount),
			AssignedTo:      assignees,
		})
	}
	for _, cost := range r.AdditionalCosts {
		if !cost.AdditionalCost {
			sum.InformationalCosts = append(sum.InformationalCosts, cost)
		}
	}

	personCosts := calculator.ComputePersonCosts(r.Items, r.AdditionalCosts, s.Assignments, s.Participants)
	for _, pc := range personCosts {
		sum.People = append(sum.People, PersonSummary{
			PersonCost:      pc,
			FormattedAmount: calculator.FormatMoney(symbol, pc.Amount),
		})
	}

	sum.Unclaimed = calculator.SettledUnclaimed(r.TotalPrice, personCosts)
	sum.UnclaimedVisible = sum.Unclaimed > calculator.UnclaimedEpsilon
	sum.FormattedUnclaimed = calculator.FormatMoney(symbol, sum.Unclaimed)
	return sum
}

// PersonCosts returns the current per-person totals of s.
func PersonCosts(s *models.Session) []models.PersonCost {
	if s.Receipt == nil {
		return nil
	}
	return calculator.ComputePersonCosts(s.Receipt.Items, s.Receipt.AdditionalCosts, s.Assignments, s.Participants)
}
