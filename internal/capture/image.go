package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Upload limits.
const (
	MaxWidth  = 1920
	MaxHeight = 1920
	// MaxPayloadBytes is the largest decoded data-URL the vision endpoint
	// accepts.
	MaxPayloadBytes = 10 * 1024 * 1024
)

// ErrTooLarge is returned by Encode when the estimated payload exceeds
// MaxPayloadBytes.
var ErrTooLarge = errors.New("capture: encoded image exceeds upload limit")

// Resizer shrinks an image file in place to fit within the given bounds.
type Resizer interface {
	Resize(path string, maxW, maxH int) error
}

// ImageResizer decodes PNG, JPEG, GIF or WebP and rewrites the file as PNG
// when it exceeds the bounds. Images already within bounds are untouched.
type ImageResizer struct{}

// Resize scales the image at path to fit within maxW x maxH keeping its
// aspect ratio.
func (ImageResizer) Resize(path string, maxW, maxH int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("resize: open: %w", err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("resize: decode: %w", err)
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dst); err != nil {
		return fmt.Errorf("resize: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".resize-*.png")
	if err != nil {
		return fmt.Errorf("resize: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("resize: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("resize: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("resize: rename: %w", err)
	}
	return nil
}

// fitWithin returns w x h scaled down proportionally to fit maxW x maxH.
// Sizes already within bounds are returned unchanged.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	var nw, nh int
	if w*maxH >= h*maxW {
		nw, nh = maxW, h*maxW/w
	} else {
		nw, nh = w*maxH/h, maxH
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// Encoded is an image ready for upload.
type Encoded struct {
	Base64   string
	MIMEType string
}

// DataURLLen is the length of the data: URL this image renders to.
func (e Encoded) DataURLLen() int {
	return len("data:") + len(e.MIMEType) + len(";base64,") + len(e.Base64)
}

// EstimatedBytes approximates the decoded payload size the way the
// endpoint counts it: three bytes per four data-URL characters.
func (e Encoded) EstimatedBytes() int {
	return e.DataURLLen() * 3 / 4
}

// Encode reads the image at path and base64-encodes it. It returns
// ErrTooLarge, alongside the encoded value, when the estimate exceeds
// MaxPayloadBytes.
func Encode(path string) (Encoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Encoded{}, fmt.Errorf("encode: read: %w", err)
	}
	if len(data) == 0 {
		return Encoded{}, errors.New("encode: empty image file")
	}
	enc := Encoded{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIMEType: sniffMIME(data),
	}
	if enc.EstimatedBytes() > MaxPayloadBytes {
		return enc, ErrTooLarge
	}
	return enc, nil
}

func sniffMIME(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "image/gif"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	}
	return "image/png"
}
