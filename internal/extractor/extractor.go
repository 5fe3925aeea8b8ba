// Package extractor turns a file on disk into either raw tensors
// (image/video frames) or plain text (documents, audio pass-through),
// depending on its modality. It carries forward the kind-detection and
// strict-text-fallback conventions of this project's earlier
// ingestion extractor, adapted from GCS-backed to local-filesystem
// extraction with no cloud OCR/ASR providers: PDF/DOCX use local parser
// libraries, video/audio are sampled with ffmpeg/ffprobe directly.
package extractor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/brinkfield/multicore/internal/domain"
	"github.com/brinkfield/multicore/internal/platform/logger"
)

// Extractor holds process-wide configuration; it carries no mutable
// per-call state, so one instance is safe to share across a batch.
type Extractor struct {
	Log *logger.Logger

	FPSFactor         float64
	MaxFramesVideo    int
	MaxPDFPagesRender int
}

// New constructs an Extractor with its default sampling knobs.
func New(log *logger.Logger) *Extractor {
	return &Extractor{
		Log:               log.With("component", "Extractor"),
		FPSFactor:         0.3,
		MaxFramesVideo:    0, // 0 == uncapped, matches default max_frames=∞
		MaxPDFPagesRender: 200,
	}
}

// Extract dispatches on the file's extension bucket and returns a
// best-effort result: on any failure the payload is empty and Err is
// set, never a panic or error return across this boundary.
func (e *Extractor) Extract(path, originalName string) (result domain.ExtractionResult) {
	ext := strings.ToLower(filepath.Ext(originalName))

	defer func() {
		if r := recover(); r != nil {
			e.Log.Warn("extractor recovered from panic", "name", originalName, "panic", r)
			result = failure(domain.ModalityUnknown, fmt.Sprintf("extractor panic: %v", r))
		}
	}()

	switch {
	case imageExt(ext):
		return e.extractImage(path)
	case videoExt(ext):
		return e.extractVideo(path)
	case audioExt(ext):
		return e.extractAudio(path)
	case ext == ".pdf":
		return e.extractPDF(path)
	case ext == ".docx":
		return e.extractDOCX(path)
	default:
		return e.extractPlainText(path)
	}
}

func imageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp":
		return true
	}
	return false
}

func videoExt(ext string) bool {
	switch ext {
	case ".mp4", ".mov", ".avi", ".mkv", ".webm":
		return true
	}
	return false
}

func audioExt(ext string) bool {
	switch ext {
	case ".mp3", ".wav", ".flac", ".ogg", ".m4a":
		return true
	}
	return false
}

func (e *Extractor) extractImage(path string) domain.ExtractionResult {
	f, err := os.Open(path)
	if err != nil {
		return failure(domain.ModalityImage, fmt.Sprintf("open image: %v", err))
	}
	defer f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return failure(domain.ModalityImage, fmt.Sprintf("read image: %v", err))
	}

	img, err := decodeImage(data)
	if err != nil {
		return failure(domain.ModalityImage, fmt.Sprintf("decode image: %v", err))
	}

	tensor := toRGBTensor(img)
	return domain.ExtractionResult{
		Modality:    domain.ModalityImage,
		ImageTensor: &tensor,
		Diagnostics: map[string]any{"width": tensor.Width, "height": tensor.Height},
	}
}

func decodeImage(data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	if img, _, err := image.Decode(r); err == nil {
		return img, nil
	}
	if img, err := bmp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("unrecognized image format")
}

func toRGBTensor(img image.Image) domain.ImageTensor {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bch, _ := img.At(x, y).RGBA()
			pix = append(pix, byte(r>>8), byte(g>>8), byte(bch>>8))
		}
	}
	return domain.ImageTensor{Width: w, Height: h, Pix: pix}
}

func (e *Extractor) extractPlainText(path string) domain.ExtractionResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure(domain.ModalityText, fmt.Sprintf("read text: %v", err))
	}
	text, err := decodeText(data)
	if err != nil {
		return failure(domain.ModalityText, fmt.Sprintf("decode text: %v", err))
	}
	return domain.ExtractionResult{Modality: domain.ModalityText, Text: text}
}

// decodeText tries utf-8, then utf-16, then falls back to latin-1 (a
// byte-for-byte widen to runes, which never fails).
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if s, ok := decodeUTF16(data); ok {
		return s, nil
	}
	return decodeLatin1(data), nil
}

func decodeUTF16(data []byte) (string, bool) {
	if len(data) < 2 || len(data)%2 != 0 {
		return "", false
	}
	var little bool
	switch {
	case data[0] == 0xFF && data[1] == 0xFE:
		little = true
		data = data[2:]
	case data[0] == 0xFE && data[1] == 0xFF:
		little = false
		data = data[2:]
	default:
		return "", false
	}
	u16 := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		if little {
			u16 = append(u16, uint16(data[i])|uint16(data[i+1])<<8)
		} else {
			u16 = append(u16, uint16(data[i+1])|uint16(data[i])<<8)
		}
	}
	runes := make([]rune, 0, len(u16))
	for _, v := range u16 {
		runes = append(runes, rune(v))
	}
	return string(runes), true
}

func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func failure(modality domain.Modality, errMsg string) domain.ExtractionResult {
	return domain.ExtractionResult{Modality: modality, Err: errMsg}
}
