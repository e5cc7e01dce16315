package calculator

import (
	"fmt"

	"github.com/mmynk/godutch/internal/models"
)

// ChargeKind distinguishes receipt items from additional costs.
type ChargeKind int

const (
	KindItem ChargeKind = iota
	KindAdditionalCost
)

func (k ChargeKind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindAdditionalCost:
		return "additional-cost"
	default:
		return fmt.Sprintf("ChargeKind(%d)", int(k))
	}
}

// Charge is a uniform view over an item or an assignable additional cost.
type Charge struct {
	ID       string
	Kind     ChargeKind
	Index    int // position in the receipt's Items or AdditionalCosts slice
	Name     string
	Quantity int
	Amount   float64
}

// ItemChargeID returns the charge ID of the item at index i.
func ItemChargeID(i int) string {
	return fmt.Sprintf("item-%d", i)
}

// AdditionalCostChargeID returns the charge ID of the additional cost at index j.
// j is the index in the receipt's full AdditionalCosts slice, including
// unflagged entries.
func AdditionalCostChargeID(j int) string {
	return fmt.Sprintf("additional-cost-%d", j)
}

// Charges lists the assignable charges of a receipt: every item, followed by
// every additional cost flagged as assignable.
func Charges(items []models.ReceiptItem, costs []models.AdditionalCost) []Charge {
	charges := make([]Charge, 0, len(items)+len(costs))
	for i, item := range items {
		charges = append(charges, Charge{
			ID:       ItemChargeID(i),
			Kind:     KindItem,
			Index:    i,
			Name:     item.Name,
			Quantity: item.Quantity,
			Amount:   item.Price,
		})
	}
	for j, cost := range costs {
		if !cost.AdditionalCost {
			continue
		}
		charges = append(charges, Charge{
			ID:       AdditionalCostChargeID(j),
			Kind:     KindAdditionalCost,
			Index:    j,
			Name:     cost.Name,
			Quantity: 1,
			Amount:   cost.Amount,
		})
	}
	return charges
}
