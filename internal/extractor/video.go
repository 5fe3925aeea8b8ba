package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/brinkfield/multicore/internal/domain"
)

// extractVideo samples frames at rate fps_factor * source_fps (default
// 0.3), capped by MaxFramesVideo, and decodes each into an RGB tensor.
// Adapted from this project's earlier localmedia.ExtractKeyframes,
// which shelled ffmpeg out against a GCS-staged temp file; here ffmpeg
// reads the already-local upload path directly.
func (e *Extractor) extractVideo(path string) domain.ExtractionResult {
	sourceFPS, durationSec, err := probeVideo(path)
	if err != nil {
		return failure(domain.ModalityVideo, fmt.Sprintf("ffprobe: %v", err))
	}

	fpsFactor := e.FPSFactor
	if fpsFactor <= 0 {
		fpsFactor = 0.3
	}
	sampleFPS := fpsFactor * sourceFPS
	if sampleFPS <= 0 {
		sampleFPS = 0.3
	}

	tmpDir, err := os.MkdirTemp("", "extract_frames_*")
	if err != nil {
		return failure(domain.ModalityVideo, fmt.Sprintf("tempdir: %v", err))
	}
	defer os.RemoveAll(tmpDir)

	framePaths, err := sampleFrames(path, tmpDir, sampleFPS)
	if err != nil {
		return failure(domain.ModalityVideo, fmt.Sprintf("ffmpeg sample frames: %v", err))
	}
	if e.MaxFramesVideo > 0 && len(framePaths) > e.MaxFramesVideo {
		framePaths = framePaths[:e.MaxFramesVideo]
	}
	if len(framePaths) == 0 {
		return failure(domain.ModalityVideo, "no frames sampled")
	}

	frames := make([]domain.ImageTensor, 0, len(framePaths))
	for _, fp := range framePaths {
		data, err := os.ReadFile(fp)
		if err != nil {
			continue
		}
		img, err := decodeImage(data)
		if err != nil {
			continue
		}
		frames = append(frames, toRGBTensor(img))
	}
	if len(frames) == 0 {
		return failure(domain.ModalityVideo, "no frames decoded")
	}

	return domain.ExtractionResult{
		Modality: domain.ModalityVideo,
		FrameSet: &domain.FrameSet{
			Frames:          frames,
			DurationSec:     durationSec,
			FrameCountTotal: len(frames),
			SourceFPS:       sourceFPS,
		},
		Diagnostics: map[string]any{"frames_sampled": len(frames), "source_fps": sourceFPS},
	}
}

func probeVideo(path string) (fps float64, durationSec float64, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	out, cmdErr := cmd.Output()
	if cmdErr != nil {
		return 0, 0, fmt.Errorf("ffprobe failed: %w", cmdErr)
	}

	fps = 24.0
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "r_frame_rate=") {
			fps = parseFrameRate(strings.TrimPrefix(line, "r_frame_rate="))
		}
		if strings.HasPrefix(line, "duration=") {
			if d, err := strconv.ParseFloat(strings.TrimPrefix(line, "duration="), 64); err == nil {
				durationSec = d
			}
		}
	}
	return fps, durationSec, nil
}

func parseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 == nil && err2 == nil && den != 0 {
			return num / den
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v
	}
	return 24.0
}

func sampleFrames(videoPath, outDir string, fps float64) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	outPattern := filepath.Join(outDir, "frame_%06d.jpg")
	args := []string{
		"-y", "-i", videoPath,
		"-vf", fmt.Sprintf("fps=%0.6f", fps),
		"-q:v", "3",
		outPattern,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w; out=%s", err, string(out))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range entries {
		if !ent.IsDir() && strings.HasPrefix(ent.Name(), "frame_") {
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names)
	paths := make([]string, 0, len(names))
	for _, n := range names {
		paths = append(paths, filepath.Join(outDir, n))
	}
	return paths, nil
}
