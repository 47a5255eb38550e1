package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/cueline/cueline/internal/logger"
)

// Timeout for FFprobe execution
const ffprobeTimeout = 30 * time.Second

// Probe errors
var (
	ErrFFprobeNotFound = errors.New("ffprobe not found in PATH")
	ErrInvalidFile     = errors.New("invalid or corrupted media file")
	ErrProbeTimeout    = errors.New("ffprobe execution timed out")
)

// ffprobeResult is the subset of FFprobe's JSON output we read.
type ffprobeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// CheckFFprobeInstalled checks if FFprobe is available in PATH
func CheckFFprobeInstalled() error {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFFprobeNotFound
	}
	return nil
}

// ProbeDuration returns the duration of a video or audio file in seconds.
// The editor uses it to prefill overlay durations on upload, so callers
// treat failure as "duration unknown" rather than an upload error.
func ProbeDuration(ctx context.Context, filePath string) (float64, error) {
	if err := CheckFFprobeInstalled(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, ffprobeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			logger.Log.Error().
				Str("file_path", filePath).
				Msg("FFprobe execution timed out")
			return 0, ErrProbeTimeout
		}
		logger.Log.Error().
			Err(err).
			Str("file_path", filePath).
			Msg("FFprobe command failed")
		return 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	var result ffprobeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration := extractDuration(&result)
	if duration <= 0 {
		return 0, fmt.Errorf("%w: could not determine media duration", ErrInvalidFile)
	}

	logger.Log.Debug().
		Str("file_path", filePath).
		Float64("duration", duration).
		Msg("Probed media duration")

	return duration, nil
}

// extractDuration prefers the first stream duration and falls back to the
// container duration.
func extractDuration(result *ffprobeResult) float64 {
	for _, stream := range result.Streams {
		if stream.Duration == "" {
			continue
		}
		if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil && d > 0 {
			return d
		}
	}
	if result.Format.Duration != "" {
		if d, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
			return d
		}
	}
	return 0
}
