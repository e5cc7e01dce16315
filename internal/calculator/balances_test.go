package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/mmynk/godutch/internal/models"
)

func TestSettleUp(t *testing.T) {
	personCosts := []models.PersonCost{
		{ParticipantID: "person-0", Name: "Alice", Amount: 22},
		{ParticipantID: "person-1", Name: "Bob", Amount: 11},
		{ParticipantID: "person-2", Name: "Carol", Amount: 0.004},
	}

	tests := []struct {
		name    string
		payer   string
		want    []Transfer
		wantErr error
	}{
		{
			name:  "everyone pays alice",
			payer: "person-0",
			want:  []Transfer{{From: "person-1", To: "person-0", Amount: 11}},
		},
		{
			name:  "everyone pays bob",
			payer: "person-1",
			want:  []Transfer{{From: "person-0", To: "person-1", Amount: 22}},
		},
		{
			name:    "unknown payer",
			payer:   "person-9",
			wantErr: ErrUnknownParticipant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SettleUp(personCosts, tt.payer)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SettleUp failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].From != tt.want[i].From || got[i].To != tt.want[i].To {
					t.Errorf("transfer %d = %+v, want %+v", i, got[i], tt.want[i])
				}
				if math.Abs(got[i].Amount-tt.want[i].Amount) > 0.01 {
					t.Errorf("transfer %d amount = %v, want %v", i, got[i].Amount, tt.want[i].Amount)
				}
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		symbol string
		amount float64
		want   string
	}{
		{symbol: "$", amount: 384.58, want: "$384.58"},
		{symbol: "", amount: 6, want: "$6.00"},
		{symbol: "€", amount: 10.0 / 3, want: "€3.33"},
		{symbol: "$", amount: 2.675, want: "$2.68"},
		{symbol: "$", amount: 0, want: "$0.00"},
		// Exact half-cents round away from zero on the decimal value, not
		// on its binary approximation (1.005 is stored as 1.00499...).
		{symbol: "$", amount: 1.005, want: "$1.01"},
		{symbol: "$", amount: 0.125, want: "$0.13"},
		{symbol: "$", amount: -1.005, want: "$-1.01"},
		{symbol: "$", amount: 1.0049, want: "$1.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.symbol, tt.amount); got != tt.want {
			t.Errorf("FormatMoney(%q, %v) = %q, want %q", tt.symbol, tt.amount, got, tt.want)
		}
	}
}

func TestChargeLabel(t *testing.T) {
	charges := Charges(
		[]models.ReceiptItem{
			{Name: "Chai", Quantity: 1, Price: 8},
			{Name: "Chuski Chai", Quantity: 3, Price: 12},
		},
		[]models.AdditionalCost{{Name: "Surcharge", Amount: 6.58, AdditionalCost: true}},
	)
	want := []string{"Chai", "Chuski Chai (×3)", "Surcharge (Additional)"}
	for i, c := range charges {
		if got := ChargeLabel(c); got != want[i] {
			t.Errorf("ChargeLabel(%s) = %q, want %q", c.ID, got, want[i])
		}
	}
}
