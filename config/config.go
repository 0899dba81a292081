package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	TLS_DOMAINS        = "" // e.g. "example.com,example2.com"
	BIND_ADDRESS       = "0.0.0.0:8080"
	MYSQL_DSN          = ""             // MySQL will be used if this is set
	SQLITE_FILE        = "facetrack.db" // SQLite will be used if MYSQL_DSN is not configured
	DEBUG_MODE         = true
	SESSION_COOKIE_KEY = "change me" // Key for the cookie store that remembers a browser's tracking session

	// Stability filter defaults for newly created tracking sessions
	STABILITY_THRESHOLD  = 3.0   // Mean landmark displacement (in pixels for 2D) that counts as movement
	STABILITY_DIMENSIONS = 2     // 2 or 3 coordinates per landmark
	FIRST_FRAME_RENDER   = false // Whether clients should render when there is no baseline yet
	SESSION_IDLE_TIMEOUT = 1 * time.Minute
	RECORD_OUTCOMES      = false // Store every frame outcome in the DB (sessions counters are always updated)

	// Face detection (dlib via go-face)
	FACE_DETECT     = true
	FACE_MODELS_DIR = "models"
	FACE_INPUT_SIZE = 512        // Frames are downscaled to fit this size before detection
	FACE_MAX_PIXELS = 25_000_000 // Frames declaring more pixels are refused before decoding, 0 disables the check

	LOG_FILE  = "" // Optional rotating log file, stderr only if empty
	LOG_LEVEL = "info"
)

func init() {
	// .env is optional, real environment variables take precedence
	_ = godotenv.Load()

	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("SESSION_COOKIE_KEY", &SESSION_COOKIE_KEY)
	readEnvFloat("STABILITY_THRESHOLD", &STABILITY_THRESHOLD)
	readEnvInt("STABILITY_DIMENSIONS", &STABILITY_DIMENSIONS)
	readEnvBool("FIRST_FRAME_RENDER", &FIRST_FRAME_RENDER)
	readEnvDuration("SESSION_IDLE_TIMEOUT", &SESSION_IDLE_TIMEOUT)
	readEnvBool("RECORD_OUTCOMES", &RECORD_OUTCOMES)
	readEnvBool("FACE_DETECT", &FACE_DETECT)
	readEnvString("FACE_MODELS_DIR", &FACE_MODELS_DIR)
	readEnvInt("FACE_INPUT_SIZE", &FACE_INPUT_SIZE)
	readEnvInt("FACE_MAX_PIXELS", &FACE_MAX_PIXELS)
	readEnvString("LOG_FILE", &LOG_FILE)
	readEnvString("LOG_LEVEL", &LOG_LEVEL)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*value = f
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = i
}

// readEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func readEnvDuration(name string, value *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*value = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*value = time.Duration(secs) * time.Second
	}
}
