package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	ProfileStore string
	ProfileDir   string
	DatabaseURL  string

	PageRenderer  string
	PdftoppmBin   string
	BrowserBin    string
	ExportEngine  string
	RenderTimeout time.Duration
	ExportTimeout time.Duration

	DraftDelay    time.Duration
	WizardTTL     time.Duration
	CropMinWidth  float64
	CropMinHeight float64
}

// Load reads configuration from environment variables with sensible defaults.
// When CONFIG_FILE points at a YAML file, its values are applied first and
// environment variables still win.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(path); err != nil {
			log.Printf("config file %s ignored: %v", path, err)
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	profileStore := normalizeProfileStore(getEnv("PROFILE_STORE", ""), dbURL)

	if env == "production" && profileStore == "memory" {
		log.Printf("PROFILE_STORE=memory loses all profiles on restart")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data/assets"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		ProfileStore:    profileStore,
		ProfileDir:      getEnv("PROFILE_DIR", "./data/profiles"),
		DatabaseURL:     dbURL,
		PageRenderer:    normalizePageRenderer(getEnv("PAGE_RENDERER", "converter")),
		PdftoppmBin:     getEnv("PDFTOPPM_BIN", "pdftoppm"),
		BrowserBin:      getEnv("ROD_BROWSER_BIN", ""),
		ExportEngine:    normalizeExportEngine(getEnv("EXPORT_ENGINE", "rod")),
		RenderTimeout:   getDuration("RENDER_TIMEOUT", 30*time.Second),
		ExportTimeout:   getDuration("EXPORT_TIMEOUT", time.Minute),
		DraftDelay:      getDuration("DRAFT_DELAY", 5*time.Second),
		WizardTTL:       getDuration("WIZARD_SESSION_TTL", 2*time.Hour),
		CropMinWidth:    getFloat("CROP_MIN_WIDTH", 50),
		CropMinHeight:   getFloat("CROP_MIN_HEIGHT", 30),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		log.Printf("config %s invalid number %q, using %v", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "memory":
		return "memory"
	default:
		return "local"
	}
}

func normalizeExportEngine(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "chromedp") {
		return "chromedp"
	}
	return "rod"
}

func normalizePageRenderer(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "poppler") {
		return "poppler"
	}
	return "converter"
}

// normalizeProfileStore picks postgres when a database is configured and no
// explicit store was requested.
func normalizeProfileStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "memory":
		return "memory"
	case "file":
		return "file"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "file"
}
