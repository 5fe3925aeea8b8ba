package extractor

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/brinkfield/multicore/internal/domain"
)

// extractAudio passes the path through for later transcription and
// records duration when ffprobe is available; audio extraction does
// not decode samples itself.
func (e *Extractor) extractAudio(path string) domain.ExtractionResult {
	durationSec, err := probeAudioDuration(path)
	diag := map[string]any{}
	if err != nil {
		diag["duration_probe_error"] = err.Error()
	} else {
		diag["duration_s"] = durationSec
	}
	return domain.ExtractionResult{
		Modality:         domain.ModalityAudio,
		AudioPath:        path,
		AudioDurationSec: durationSec,
		Diagnostics:      diag,
	}
}

func probeAudioDuration(path string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "duration=") {
			v, err := strconv.ParseFloat(strings.TrimPrefix(line, "duration="), 64)
			if err == nil {
				return v, nil
			}
		}
	}
	return 0, fmt.Errorf("duration not found in ffprobe output")
}
