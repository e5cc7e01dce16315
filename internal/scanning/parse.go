package scanning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/godutch/internal/models"
)

var validate = validator.New()

// stripCodeFence removes a surrounding markdown code block, if present.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseAnalysisJSON parses a model response into a receipt. Results that
// carry errorText are returned as-is; everything else must validate.
func parseAnalysisJSON(text string) (*models.ReceiptAnalysisResult, error) {
	text = stripCodeFence(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var result models.ReceiptAnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result.ErrorText = strings.TrimSpace(result.ErrorText)
	if result.Items == nil {
		result.Items = []models.ReceiptItem{}
	}
	if !result.Readable() {
		return &result, nil
	}

	for i := range result.Items {
		result.Items[i].Name = strings.TrimSpace(result.Items[i].Name)
		if result.Items[i].Quantity < 1 {
			result.Items[i].Quantity = 1
		}
	}
	for i := range result.AdditionalCosts {
		result.AdditionalCosts[i].Name = strings.TrimSpace(result.AdditionalCosts[i].Name)
	}
	result.Currency = strings.ToUpper(strings.TrimSpace(result.Currency))
	result.CurrencySymbol = strings.TrimSpace(result.CurrencySymbol)

	if err := validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("validating receipt: %w", err)
	}

	return &result, nil
}
