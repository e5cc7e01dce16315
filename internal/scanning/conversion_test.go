package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

var _ = Describe("prepareImageData", func() {
	It("should pass PNG through untouched", func() {
		var buf bytes.Buffer
		Expect(png.Encode(&buf, sampleImage())).To(Succeed())

		out, converted, err := prepareImageData(buf.Bytes(), "image/png")

		Expect(err).NotTo(HaveOccurred())
		Expect(converted).To(BeFalse())
		Expect(out).To(Equal(buf.Bytes()))
	})

	It("should convert JPEG to PNG", func() {
		var buf bytes.Buffer
		Expect(jpeg.Encode(&buf, sampleImage(), nil)).To(Succeed())

		out, converted, err := prepareImageData(buf.Bytes(), "IMAGE/JPEG; charset=binary")

		Expect(err).NotTo(HaveOccurred())
		Expect(converted).To(BeTrue())
		_, format, err := image.Decode(bytes.NewReader(out))
		Expect(err).NotTo(HaveOccurred())
		Expect(format).To(Equal("png"))
	})

	It("should sniff the format when no content type is given", func() {
		var buf bytes.Buffer
		Expect(jpeg.Encode(&buf, sampleImage(), nil)).To(Succeed())

		_, converted, err := prepareImageData(buf.Bytes(), "")

		Expect(err).NotTo(HaveOccurred())
		Expect(converted).To(BeTrue())
	})

	It("should reject unknown formats", func() {
		_, _, err := prepareImageData([]byte("definitely not an image"), "image/jpeg")
		Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
	})

	It("should reject empty uploads", func() {
		_, _, err := prepareImageData(nil, "image/png")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("HEIC detection", func() {
	DescribeTable("isHEICFormat",
		func(data []byte, expected bool) {
			Expect(isHEICFormat(data)).To(Equal(expected))
		},
		Entry("heic brand", []byte("\x00\x00\x00\x18ftypheic\x00\x00"), true),
		Entry("mif1 brand", []byte("\x00\x00\x00\x18ftypmif1\x00\x00"), true),
		Entry("mp4 brand", []byte("\x00\x00\x00\x18ftypisom\x00\x00"), false),
		Entry("too short", []byte("ftyp"), false),
	)

	DescribeTable("isHEICMimeType",
		func(mimeType string, expected bool) {
			Expect(isHEICMimeType(mimeType)).To(Equal(expected))
		},
		Entry("heic", "image/heic", true),
		Entry("heif", "image/heif", true),
		Entry("jpeg", "image/jpeg", false),
	)
})
