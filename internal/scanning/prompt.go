package scanning

// receiptScanPrompt is the shared prompt used by all LLM providers for scanning receipts
const receiptScanPrompt = `You are analyzing a restaurant or shop receipt. Carefully read all text in the image and extract every purchased line and every extra charge.

1. **Items**: One entry per printed line. "name" is the description as printed, "quantity" is the number of units (1 if not shown) and "price" is the LINE TOTAL for that line, not the unit price.

2. **Additional costs**: Surcharges, service fees, tips, delivery fees, taxes and similar lines that are not purchased items. Set "additionalCost" to true when the amount is added on top of the items (for example a card surcharge or tip). Set it to false when the amount is already included in the item prices (for example "GST included" or "Tax included in items").

3. **Total**: The final amount paid, usually labeled "TOTAL", "Amount Due" or similar.

4. **Currency**: The ISO 4217 code (e.g. "AUD", "USD", "EUR") and the symbol printed on the receipt (e.g. "$", "€").

Return ONLY valid JSON in this exact format:
{
  "items": [{"name": "Item name", "quantity": 1, "price": 0.00}],
  "additionalCosts": [{"name": "Surcharge", "amount": 0.00, "additionalCost": true}],
  "totalPrice": 0.00,
  "currency": "USD",
  "currencySymbol": "$"
}

Important:
- All amounts must be numbers (not strings)
- Use an empty array for "additionalCosts" if there are none
- If the image is not a receipt or cannot be read, return {"items": [], "totalPrice": 0, "currency": "", "errorText": "<short reason>"}
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// ollamaSystemPrompt primes chat-style models before the extraction prompt.
const ollamaSystemPrompt = "You are an expert at reading and extracting information from receipts. You must carefully read all text in images and extract accurate information."
