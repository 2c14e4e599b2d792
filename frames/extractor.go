package frames

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Grabber is the external decode capability the extractor drives: it can
// report a video's duration and rasterize the frame at a given timestamp.
type Grabber interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
	GrabAt(ctx context.Context, videoPath string, at float64) ([]byte, error)
}

// FFmpegGrabber implements Grabber with ffprobe/ffmpeg subprocesses.
type FFmpegGrabber struct {
	FFmpegBin  string
	FFprobeBin string
}

func NewFFmpegGrabber(ffmpegBin, ffprobeBin string) *FFmpegGrabber {
	return &FFmpegGrabber{FFmpegBin: ffmpegBin, FFprobeBin: ffprobeBin}
}

func (g *FFmpegGrabber) Duration(ctx context.Context, videoPath string) (float64, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return 0, fmt.Errorf("video file does not exist at path: '%s'", videoPath)
	}

	cmd := exec.CommandContext(ctx, g.FFprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for '%s': %w", videoPath, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("unreadable duration from ffprobe: %w", err)
	}
	return duration, nil
}

// GrabAt decodes the frame nearest the timestamp and encodes it as JPEG at
// the video's native resolution (-q:v 3 is roughly 0.9 quality).
func (g *FFmpegGrabber) GrabAt(ctx context.Context, videoPath string, at float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.FFmpegBin,
		"-ss", fmt.Sprintf("%.3f", at),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed at %.3fs: %v\nOutput: %s", at, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at %.3fs", at)
	}
	return stdout.Bytes(), nil
}

// SampleTimes returns the timestamps to sample: the duration is split into
// min(maxFrames, ceil(duration)) equal-width slices and each slice is
// sampled at its midpoint, in increasing time order.
func SampleTimes(duration float64, maxFrames int) []float64 {
	n := int(math.Ceil(duration))
	if n > maxFrames {
		n = maxFrames
	}
	if n < 1 {
		n = 1
	}

	width := duration / float64(n)
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i)*width + width/2
	}
	return times
}

// Extractor samples a bounded number of frames from a video.
type Extractor struct {
	grabber   Grabber
	maxFrames int
	log       *slog.Logger
}

func NewExtractor(grabber Grabber, maxFrames int, log *slog.Logger) *Extractor {
	return &Extractor{grabber: grabber, maxFrames: maxFrames, log: log}
}

// Extract returns the sampled frames as JPEG bytes, index 0..n-1 in
// increasing time order. Any failure aborts the whole extraction; a partial
// frame set is never returned.
func (e *Extractor) Extract(ctx context.Context, videoPath string) ([][]byte, error) {
	duration, err := e.grabber.Duration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}

	times := SampleTimes(duration, e.maxFrames)
	e.log.Info("extracting frames", "video", videoPath, "duration", duration, "frames", len(times))

	extracted := make([][]byte, 0, len(times))
	for i, at := range times {
		frame, err := e.grabber.GrabAt(ctx, videoPath, at)
		if err != nil {
			return nil, fmt.Errorf("extract frame %d/%d: %w", i+1, len(times), err)
		}
		extracted = append(extracted, frame)
	}
	return extracted, nil
}
