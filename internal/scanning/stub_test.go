package scanning

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mmynk/godutch/internal/models"
)

var _ = Describe("Stub", func() {
	It("should return the sample receipt", func() {
		stub := NewStub(0)

		result, err := stub.ScanReceipt(context.Background(), nil, "")

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Items).To(HaveLen(15))
		Expect(result.AdditionalCosts).To(HaveLen(2))
		Expect(result.TotalPrice).To(Equal(384.58))
		Expect(result.Currency).To(Equal("AUD"))
		Expect(stub.Name()).To(Equal("stub"))
	})

	It("should return independent copies", func() {
		stub := NewStub(0)

		first, err := stub.ScanReceipt(context.Background(), nil, "")
		Expect(err).NotTo(HaveOccurred())
		first.Items[0].Name = "changed"

		second, err := stub.ScanReceipt(context.Background(), nil, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Items[0].Name).To(Equal("Chai"))
	})

	It("should return a custom result", func() {
		stub := NewStubWithResult(0, models.ReceiptAnalysisResult{ErrorText: "blurry"})

		result, err := stub.ScanReceipt(context.Background(), nil, "")

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Readable()).To(BeFalse())
	})

	It("should give up when the context is cancelled", func() {
		stub := NewStub(time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		DeferCleanup(cancel)

		_, err := stub.ScanReceipt(ctx, nil, "")

		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})
