package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// maxFileSize bounds the YAML overlay file.
const maxFileSize = 1 << 20

// fileValues mirrors the environment keys that may be set from a YAML file.
type fileValues struct {
	Port          string   `yaml:"port"`
	Env           string   `yaml:"env"`
	CORSOrigins   []string `yaml:"corsAllowOrigins"`
	ObjectStore   string   `yaml:"objectStore"`
	LocalStoreDir string   `yaml:"localStoreDir"`
	AWSRegion     string   `yaml:"awsRegion"`
	S3Bucket      string   `yaml:"s3Bucket"`
	S3Prefix      string   `yaml:"s3Prefix"`
	ProfileStore  string   `yaml:"profileStore"`
	ProfileDir    string   `yaml:"profileDir"`
	DatabaseURL   string   `yaml:"databaseUrl"`
	PageRenderer  string   `yaml:"pageRenderer"`
	PdftoppmBin   string   `yaml:"pdftoppmBin"`
	BrowserBin    string   `yaml:"browserBin"`
	ExportEngine  string   `yaml:"exportEngine"`
	RenderTimeout string   `yaml:"renderTimeout"`
	ExportTimeout string   `yaml:"exportTimeout"`
	DraftDelay    string   `yaml:"draftDelay"`
	WizardTTL     string   `yaml:"wizardSessionTtl"`
	CropMinWidth  string   `yaml:"cropMinWidth"`
	CropMinHeight string   `yaml:"cropMinHeight"`
}

// applyFile reads a YAML config file and exports its values as environment
// variables that are not already set.
func applyFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided path
	if err != nil {
		return err
	}
	return applyYAML(data)
}

func applyYAML(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty config file")
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("config file exceeds %d bytes", maxFileSize)
	}
	var v fileValues
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.Strict()); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	pairs := map[string]string{
		"PORT":               v.Port,
		"ENV":                v.Env,
		"CORS_ALLOW_ORIGINS": strings.Join(v.CORSOrigins, ","),
		"OBJECT_STORE":       v.ObjectStore,
		"LOCAL_STORE_DIR":    v.LocalStoreDir,
		"AWS_REGION":         v.AWSRegion,
		"S3_BUCKET":          v.S3Bucket,
		"S3_PREFIX":          v.S3Prefix,
		"PROFILE_STORE":      v.ProfileStore,
		"PROFILE_DIR":        v.ProfileDir,
		"DATABASE_URL":       v.DatabaseURL,
		"PAGE_RENDERER":      v.PageRenderer,
		"PDFTOPPM_BIN":       v.PdftoppmBin,
		"ROD_BROWSER_BIN":    v.BrowserBin,
		"EXPORT_ENGINE":      v.ExportEngine,
		"RENDER_TIMEOUT":     v.RenderTimeout,
		"EXPORT_TIMEOUT":     v.ExportTimeout,
		"DRAFT_DELAY":        v.DraftDelay,
		"WIZARD_SESSION_TTL": v.WizardTTL,
		"CROP_MIN_WIDTH":     v.CropMinWidth,
		"CROP_MIN_HEIGHT":    v.CropMinHeight,
	}
	for key, val := range pairs {
		if strings.TrimSpace(val) == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
