// Package encoder turns raw pixels and text into vectors that share one
// embedding space of fixed dimension D (512).
//
// No ML/embedding-model binding is available, so the shared space is a
// deterministic feature-hashing projection: encode_image hashes
// resized-and-quantized pixel blocks, encode_text hashes word trigrams
// (after tiktoken-go truncation), and both land in the same D-dimensional
// space by construction, not by training. Every vector with any content
// is L2-normalized before it leaves this package (empty input, such as
// text with no words, yields the all-zero vector), and encoding the same
// text twice always produces the same vector.
//
// Encoders are process-wide state, constructed once at startup with an
// explicit init step rather than a lazy singleton, so a missing
// capability (e.g. no ASR binary) shows up as a checked flag instead of
// a runtime panic.
package encoder

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/brinkfield/multicore/internal/domain"
)

// Dim is the shared embedding space dimension, committed to process-wide.
const Dim = 512

// MaxTextTokens is encode_text's truncation cap.
const MaxTextTokens = 8192

// Encoder is constructed once at startup; AvailableASR mirrors the
// ENABLE_AUDIO config key, following the graceful-not-available-flag
// pattern every caller must check. No transcription backend is wired in
// this build, so TranscribeAudio returns "" whatever the flag says.
type Encoder struct {
	tok          *tiktoken.Tiktoken
	AvailableASR bool
}

// New constructs the process-wide Encoder. enableAudio mirrors the
// ENABLE_AUDIO config key; when false, AvailableASR is false and
// transcribe_audio always returns "".
func New(enableAudio bool) (*Encoder, error) {
	tok, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("encoder: load tokenizer: %w", err)
	}
	return &Encoder{tok: tok, AvailableASR: enableAudio}, nil
}

// PreprocessImage resizes the tensor to a fixed 32x32 grid by block
// averaging; this is modelInput in this layer's preprocess_image step.
func (e *Encoder) PreprocessImage(t domain.ImageTensor) [][3]float64 {
	const grid = 32
	out := make([][3]float64, grid*grid)
	if t.Width == 0 || t.Height == 0 || len(t.Pix) == 0 {
		return out
	}
	counts := make([]int, grid*grid)
	for y := 0; y < t.Height; y++ {
		gy := y * grid / t.Height
		for x := 0; x < t.Width; x++ {
			gx := x * grid / t.Width
			idx := gy*grid + gx
			off := (y*t.Width + x) * 3
			out[idx][0] += float64(t.Pix[off])
			out[idx][1] += float64(t.Pix[off+1])
			out[idx][2] += float64(t.Pix[off+2])
			counts[idx]++
		}
	}
	for i := range out {
		if counts[i] > 0 {
			out[i][0] /= float64(counts[i])
			out[i][1] /= float64(counts[i])
			out[i][2] /= float64(counts[i])
		}
	}
	return out
}

// EncodeImage projects preprocessed pixel blocks into the shared space
// and L2-normalizes the result.
func (e *Encoder) EncodeImage(modelInput [][3]float64) []float32 {
	vec := make([]float64, Dim)
	for i, block := range modelInput {
		for c := 0; c < 3; c++ {
			bucket := (i*3 + c) % Dim
			vec[bucket] += block[c]
		}
	}
	return normalize(vec)
}

// EncodeText truncates to MaxTextTokens via tiktoken, then hashes
// overlapping word trigrams into the shared space. Two calls with the
// same text always produce the same vector, so searching for a query
// that exactly matches a stored document's text ranks it first.
func (e *Encoder) EncodeText(s string) []float32 {
	s = e.TruncateTokens(s, MaxTextTokens)
	vec := make([]float64, Dim)
	words := strings.Fields(strings.ToLower(s))
	if len(words) == 0 {
		return normalize(vec)
	}
	const n = 3
	for i := 0; i < len(words); i++ {
		end := i + n
		if end > len(words) {
			end = len(words)
		}
		gram := strings.Join(words[i:end], " ")
		h := sha256.Sum256([]byte(gram))
		for k := 0; k < Dim; k += 8 {
			bucket := (int(h[k%len(h)]) | int(h[(k+1)%len(h)])<<8) % Dim
			sign := 1.0
			if h[(k+2)%len(h)]&1 == 1 {
				sign = -1.0
			}
			vec[bucket] += sign
		}
	}
	return normalize(vec)
}

// TruncateTokens truncates s to at most maxTokens tiktoken tokens.
func (e *Encoder) TruncateTokens(s string, maxTokens int) string {
	ids := e.tok.Encode(s, nil, nil)
	if len(ids) <= maxTokens {
		return s
	}
	return e.tok.Decode(ids[:maxTokens])
}

// CountTokens reports the tiktoken token count of s.
func (e *Encoder) CountTokens(s string) int {
	return len(e.tok.Encode(s, nil, nil))
}

// CaptionImage is the stub captioner: it always falls back to
// "image (WxH)", which keeps the rest of the pipeline succeeding
// rather than failing when no real captioning model is wired.
func (e *Encoder) CaptionImage(t domain.ImageTensor) string {
	return fmt.Sprintf("image (%dx%d)", t.Width, t.Height)
}

// TranscribeAudio is the stub transcriber: it falls back to "" unless
// AvailableASR is set, in which case it still returns "" because no ASR
// backend is wired in this build — the flag exists so a future backend
// can be dropped in without changing every caller.
func (e *Encoder) TranscribeAudio(path string) string {
	if !e.AvailableASR {
		return ""
	}
	return ""
}

func normalize(v []float64) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	if norm < 1e-12 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
