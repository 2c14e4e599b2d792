package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the service reads from the environment.
type Config struct {
	Port string

	// AnalyzeURL is the endpoint of the external damage-analysis service.
	AnalyzeURL string

	UploadDir string

	FFmpegBin  string
	FFprobeBin string

	// MaxVideoFrames caps how many frames are sampled from one video.
	MaxVideoFrames int
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// Load reads .env if present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8081"),
		AnalyzeURL:     getEnv("ANALYZE_API_URL", "http://localhost:8000/api/analyze-damage"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		FFmpegBin:      getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:     getEnv("FFPROBE_BIN", "ffprobe"),
		MaxVideoFrames: getEnvInt("MAX_VIDEO_FRAMES", 6),
	}
}
