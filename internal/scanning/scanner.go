// Package scanning turns receipt images into models.ReceiptAnalysisResult
// values using a vision model (Gemini or Ollama) or a canned stub.
package scanning

import (
	"context"

	"github.com/mmynk/godutch/internal/models"
)

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// ScanReceipt analyzes a receipt image/PDF and extracts its line items.
	// A receipt the model could not read is returned with ErrorText set and a
	// nil error; the error return is for transport and parsing failures.
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*models.ReceiptAnalysisResult, error)
	// Close closes the scanner and releases resources
	Close() error
}
