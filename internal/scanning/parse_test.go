package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mmynk/godutch/internal/models"
)

var _ = Describe("parseAnalysisJSON", func() {
	var (
		jsonInput string
		data      *models.ReceiptAnalysisResult
		err       error
	)

	JustBeforeEach(func() {
		data, err = parseAnalysisJSON(jsonInput)
	})

	When("parsing a complete receipt", func() {
		BeforeEach(func() {
			jsonInput = `{
				"items": [{"name": "Coffee", "quantity": 2, "price": 9.5}],
				"additionalCosts": [
					{"name": "Tip", "amount": 2, "additionalCost": true},
					{"name": "GST included", "amount": 0.86, "additionalCost": false}
				],
				"totalPrice": 11.5,
				"currency": "aud",
				"currencySymbol": "$"
			}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the items", func() {
			Expect(data.Items).To(Equal([]models.ReceiptItem{{Name: "Coffee", Quantity: 2, Price: 9.5}}))
		})

		It("should keep the additional cost flags", func() {
			Expect(data.AdditionalCosts).To(HaveLen(2))
			Expect(data.AdditionalCosts[0].AdditionalCost).To(BeTrue())
			Expect(data.AdditionalCosts[1].AdditionalCost).To(BeFalse())
		})

		It("should normalize the currency code", func() {
			Expect(data.Currency).To(Equal("AUD"))
			Expect(data.TotalPrice).To(Equal(11.5))
		})

		It("should be readable", func() {
			Expect(data.Readable()).To(BeTrue())
		})
	})

	When("parsing JSON with markdown code blocks", func() {
		BeforeEach(func() {
			jsonInput = "```json\n{\"items\": [{\"name\": \"Tea\", \"quantity\": 1, \"price\": 4}], \"totalPrice\": 4, \"currency\": \"USD\"}\n```"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the items", func() {
			Expect(data.Items).To(HaveLen(1))
			Expect(data.Items[0].Name).To(Equal("Tea"))
		})

		It("should leave additional costs empty", func() {
			Expect(data.AdditionalCosts).To(BeEmpty())
		})
	})

	When("the model wraps the JSON in prose", func() {
		BeforeEach(func() {
			jsonInput = `Here is the receipt: {"items": [], "totalPrice": 0, "currency": "USD"} Hope that helps!`
		})

		It("should extract the object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data.Items).NotTo(BeNil())
			Expect(data.Items).To(BeEmpty())
		})
	})

	When("the quantity is missing or zero", func() {
		BeforeEach(func() {
			jsonInput = `{"items": [{"name": "Naan", "price": 7}, {"name": "Rice", "quantity": 0, "price": 5}], "totalPrice": 12, "currency": "AUD"}`
		})

		It("should default to one", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data.Items[0].Quantity).To(Equal(1))
			Expect(data.Items[1].Quantity).To(Equal(1))
		})
	})

	When("the receipt is unreadable", func() {
		BeforeEach(func() {
			jsonInput = `{"items": [], "totalPrice": 0, "currency": "", "errorText": "  Image too blurry  "}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should carry the trimmed error text", func() {
			Expect(data.ErrorText).To(Equal("Image too blurry"))
			Expect(data.Readable()).To(BeFalse())
		})
	})

	When("an item has a negative price", func() {
		BeforeEach(func() {
			jsonInput = `{"items": [{"name": "Refund", "quantity": 1, "price": -3}], "totalPrice": 0, "currency": "USD"}`
		})

		It("should fail validation", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("validating receipt"))
		})
	})

	When("an item has no name", func() {
		BeforeEach(func() {
			jsonInput = `{"items": [{"name": "  ", "quantity": 1, "price": 3}], "totalPrice": 3, "currency": "USD"}`
		})

		It("should fail validation", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("there is no JSON object", func() {
		BeforeEach(func() {
			jsonInput = "I could not read this receipt."
		})

		It("should return an error", func() {
			Expect(err).To(MatchError(ContainSubstring("no JSON object")))
		})
	})

	When("the JSON is malformed", func() {
		BeforeEach(func() {
			jsonInput = `{"items": [}`
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
