package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ollama", func() {
	var (
		server   *httptest.Server
		received ollamaChatRequest
		reply    string
		status   int
		imagePNG []byte
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = `{"items": [{"name": "Coffee", "quantity": 1, "price": 10}], "totalPrice": 10, "currency": "USD"}`

		var buf bytes.Buffer
		Expect(png.Encode(&buf, sampleImage())).To(Succeed())
		imagePNG = buf.Bytes()

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			if status != http.StatusOK {
				http.Error(w, "model not found", status)
				return
			}
			json.NewEncoder(w).Encode(ollamaChatResponse{
				Message: ollamaMessage{Role: "assistant", Content: reply},
				Done:    true,
			})
		}))
		DeferCleanup(server.Close)
	})

	It("should send the image with the prompt and parse the reply", func() {
		scanner, err := NewOllama(server.URL+"/", "llava:test")
		Expect(err).NotTo(HaveOccurred())

		result, err := scanner.ScanReceipt(context.Background(), imagePNG, "image/png")

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Items).To(HaveLen(1))
		Expect(result.TotalPrice).To(Equal(10.0))

		Expect(received.Model).To(Equal("llava:test"))
		Expect(received.Stream).To(BeFalse())
		Expect(received.Messages).To(HaveLen(2))
		Expect(received.Messages[1].Content).To(Equal(receiptScanPrompt))
		Expect(received.Messages[1].Images).To(HaveLen(1))
	})

	It("should surface API errors", func() {
		status = http.StatusNotFound
		scanner, err := NewOllama(server.URL, "missing")
		Expect(err).NotTo(HaveOccurred())

		_, err = scanner.ScanReceipt(context.Background(), imagePNG, "image/png")

		Expect(err).To(MatchError(ContainSubstring("status 404")))
	})

	It("should fail on replies that are not JSON", func() {
		reply = "Sorry, I cannot help with that."
		scanner, err := NewOllama(server.URL, "")
		Expect(err).NotTo(HaveOccurred())

		_, err = scanner.ScanReceipt(context.Background(), imagePNG, "image/png")

		Expect(err).To(MatchError(ContainSubstring("parsing receipt data")))
	})
})
