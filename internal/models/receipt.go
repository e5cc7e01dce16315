package models

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	// Name is the item description as printed on the receipt.
	Name string `json:"name" validate:"required"`

	// Quantity is the number of units on this line (always >= 1).
	Quantity int `json:"quantity" validate:"gte=1"`

	// Price is the line total, not the unit price.
	Price float64 `json:"price" validate:"gte=0"`
}

// AdditionalCost represents a surcharge, tip, tax or fee line.
type AdditionalCost struct {
	// Name is the label of the cost (e.g., "Surcharge", "Tip").
	Name string `json:"name" validate:"required"`

	// Amount is the value of the cost.
	Amount float64 `json:"amount" validate:"gte=0"`

	// AdditionalCost reports whether this cost is on top of the items and
	// therefore needs to be assigned. When false the amount is already folded
	// into the item prices and is shown for information only.
	AdditionalCost bool `json:"additionalCost"`
}

// ReceiptAnalysisResult is the structure produced by the Receipt Source.
type ReceiptAnalysisResult struct {
	// Items are the receipt lines in printed order.
	Items []ReceiptItem `json:"items" validate:"dive"`

	// AdditionalCosts are optional extra lines. Nil is equivalent to empty.
	AdditionalCosts []AdditionalCost `json:"additionalCosts,omitempty" validate:"dive"`

	// TotalPrice is the final amount printed on the receipt.
	TotalPrice float64 `json:"totalPrice" validate:"gte=0"`

	// Currency is the ISO currency code (e.g., "AUD").
	Currency string `json:"currency"`

	// CurrencySymbol is used for display only. Empty means "$".
	CurrencySymbol string `json:"currencySymbol,omitempty"`

	// ErrorText is set when the receipt could not be read. A result with
	// ErrorText carries no usable item data.
	ErrorText string `json:"errorText,omitempty"`
}

// Readable reports whether the result carries usable item data.
func (r *ReceiptAnalysisResult) Readable() bool {
	return r != nil && r.ErrorText == ""
}

// ProcessingError describes why a receipt could not be processed.
type ProcessingError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProcessingResponse is the envelope returned by the receipt processing endpoint.
type ProcessingResponse struct {
	Success bool                   `json:"success"`
	Data    *ReceiptAnalysisResult `json:"data,omitempty"`
	Error   *ProcessingError       `json:"error,omitempty"`
}
