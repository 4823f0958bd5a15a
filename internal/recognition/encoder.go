package recognition

import (
	"bytes"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"
)

// Encoder turns an image into a feature vector. The production deployment
// plugs in a real embedding model; HistogramEncoder keeps the pipeline
// functional without one.
type Encoder interface {
	Encode(img []byte) ([]float64, error)
}

const histogramBins = 64

// HistogramEncoder encodes an image as a normalized grayscale histogram.
// It is deliberately simple: vectors from it cluster by overall appearance,
// which is enough to exercise enrollment, persistence and voting.
type HistogramEncoder struct{}

func NewHistogramEncoder() *HistogramEncoder {
	return &HistogramEncoder{}
}

func (e *HistogramEncoder) Encode(img []byte) ([]float64, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := decoded.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	vector := make([]float64, histogramBins)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := decoded.At(x, y).RGBA()
			// Luma approximation on 16-bit channel values.
			gray := (299*r + 587*g + 114*b) / 1000
			bin := int(gray * histogramBins / 65536)
			if bin >= histogramBins {
				bin = histogramBins - 1
			}
			vector[bin]++
		}
	}

	for i := range vector {
		vector[i] /= float64(total)
	}
	return vector, nil
}
