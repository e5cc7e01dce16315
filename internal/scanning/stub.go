package scanning

import (
	"context"
	"time"

	"github.com/mmynk/godutch/internal/models"
)

// Ensure Stub implements Scanner
var _ Scanner = (*Stub)(nil)

// Stub returns a fixed receipt after a delay. It stands in for a real model
// during development and in tests.
type Stub struct {
	delay  time.Duration
	result models.ReceiptAnalysisResult
}

// NewStub returns a Stub that answers with the sample restaurant receipt.
func NewStub(delay time.Duration) *Stub {
	return &Stub{delay: delay, result: SampleReceipt()}
}

// NewStubWithResult returns a Stub that answers with result.
func NewStubWithResult(delay time.Duration, result models.ReceiptAnalysisResult) *Stub {
	return &Stub{delay: delay, result: result}
}

// Name returns "stub".
func (s *Stub) Name() string { return "stub" }

// ScanReceipt waits for the configured delay and returns a copy of the
// canned result. It gives up early when ctx is done.
func (s *Stub) ScanReceipt(ctx context.Context, _ []byte, _ string) (*models.ReceiptAnalysisResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := s.result
	result.Items = append([]models.ReceiptItem{}, s.result.Items...)
	if s.result.AdditionalCosts != nil {
		result.AdditionalCosts = append([]models.AdditionalCost{}, s.result.AdditionalCosts...)
	}
	return &result, nil
}

// Close is a no-op.
func (s *Stub) Close() error { return nil }

// SampleReceipt is a 15-line restaurant bill with one surcharge and one
// informational tax line.
func SampleReceipt() models.ReceiptAnalysisResult {
	return models.ReceiptAnalysisResult{
		Items: []models.ReceiptItem{
			{Name: "Chai", Quantity: 1, Price: 8},
			{Name: "Chuski Chai", Quantity: 3, Price: 12},
			{Name: "Lemonade", Quantity: 2, Price: 10},
			{Name: "Achari Plum Soya", Quantity: 1, Price: 28},
			{Name: "Kashmiri Paneer", Quantity: 1, Price: 30},
			{Name: "Vegan Butter Chicken", Quantity: 1, Price: 32},
			{Name: "Malai Kofta", Quantity: 1, Price: 28},
			{Name: "Naan Basket regular", Quantity: 1, Price: 18},
			{Name: "Lamb Masala", Quantity: 1, Price: 33},
			{Name: "Prawn Curry", Quantity: 1, Price: 36},
			{Name: "Herbs & Spice Naan Basket", Quantity: 1, Price: 23},
			{Name: "Tandoori Chicken", Quantity: 1, Price: 32},
			{Name: "Naan Garlic and Chives", Quantity: 1, Price: 7},
			{Name: "Naan chilli naan", Quantity: 1, Price: 9},
			{Name: "Custom Amount Fire ball", Quantity: 6, Price: 72},
		},
		AdditionalCosts: []models.AdditionalCost{
			{Name: "Surcharge", Amount: 6.58, AdditionalCost: true},
			{Name: "Tax Included in Items", Amount: 31.45, AdditionalCost: false},
		},
		TotalPrice:     384.58,
		Currency:       "AUD",
		CurrencySymbol: "$",
	}
}
