// Package imaging normalizes approval signatures before they are embedded in
// documents.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/erazemk/oprema/internal/model"
)

// MaxSignatureBytes is the largest accepted encoded signature.
const MaxSignatureBytes = 2 << 20

// MaxWidth and MaxHeight bound the normalized signature.
const (
	MaxWidth  = 600
	MaxHeight = 200
)

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/gif":  true,
	"image/jpeg": true,
	"image/png":  true,
}

// Signature is a normalized signature image.
type Signature struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// NormalizeSignature validates an uploaded signature by sniffing its bytes,
// flattens transparency onto white, shrinks it to fit MaxWidth x MaxHeight
// and re-encodes it as JPEG. Bad input is reported as a validation error.
func NormalizeSignature(data []byte) (*Signature, error) {
	if len(data) == 0 {
		return nil, model.Invalid("signature", "required")
	}
	if len(data) > MaxSignatureBytes {
		return nil, model.Invalid("signature", "larger than %d bytes", MaxSignatureBytes)
	}

	// Don't trust the client's content type.
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, model.Invalid("signature", "unsupported format %s (only JPEG, PNG and GIF accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.Invalid("signature", "decoding image: %v", err)
	}

	img = fit(img, MaxWidth, MaxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding signature: %w", err)
	}

	b := img.Bounds()
	return &Signature{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// fit scales img down with Catmull-Rom so it fits maxW x maxH, keeping the
// aspect ratio, and composites it over a white background. Images already
// within bounds keep their size.
func fit(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	newW, newH := w, h
	if w > maxW || h > maxH {
		scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
		newW = max(int(float64(w)*scale), 1)
		newH = max(int(float64(h)*scale), 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if newW == w && newH == h {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	}
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("gif", "GIF8?a", gif.Decode, gif.DecodeConfig)
}
