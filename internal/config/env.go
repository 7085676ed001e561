package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// PDFServicesConfig describes how to reach the extraction service. The
// credentials themselves are read per request under the names given here.
type PDFServicesConfig struct {
	ClientIDVar     string
	ClientSecretVar string
	BaseURL         string
	Timeout         time.Duration
	PollInitial     time.Duration
	PollMax         time.Duration
}

// OutputConfig defines where extraction archives land.
type OutputConfig struct {
	Dir      string
	FileName string
}

// WebConfig defines the upload form server.
type WebConfig struct {
	Port        string
	Username    string
	Password    string
	Title       string
	MaxUploadMB int
}

// Config is the top-level configuration.
type Config struct {
	Logging     LoggingConfig
	Axiom       AxiomConfig
	PDFServices PDFServicesConfig
	Output      OutputConfig
	Web         WebConfig
}

const (
	DefaultLogLevel       = "debug"
	DefaultOutputDir      = "Processed"
	DefaultOutputFileName = "ExtractTextTableWithFigureTableRendition.zip"
)

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// LOGLEVEL is accepted for compatibility with older deployments; with
	// neither set the service logs at debug.
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", getEnv("LOGLEVEL", DefaultLogLevel)),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfextract.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfextract",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.PDFServices = PDFServicesConfig{
		ClientIDVar:     getEnv("PDF_SERVICES_CLIENT_ID_VAR", "PDF_SERVICES_CLIENT_ID"),
		ClientSecretVar: getEnv("PDF_SERVICES_CLIENT_SECRET_VAR", "PDF_SERVICES_CLIENT_SECRET"),
		BaseURL:         getEnv("PDF_SERVICES_BASE_URL", RegionBaseURL(getEnv("PDF_SERVICES_REGION", "ue1"))),
		Timeout:         parseDuration(getEnv("PDF_SERVICES_TIMEOUT", "2m"), 2*time.Minute),
		PollInitial:     parseDuration(getEnv("PDF_SERVICES_POLL_INITIAL", "1s"), time.Second),
		PollMax:         parseDuration(getEnv("PDF_SERVICES_POLL_MAX", "10s"), 10*time.Second),
	}

	cfg.Output = OutputConfig{
		Dir:      getEnv("OUTPUT_DIR", DefaultOutputDir),
		FileName: getEnv("OUTPUT_FILE_NAME", DefaultOutputFileName),
	}

	cfg.Web = WebConfig{
		Port:        getEnv("PORT", "7860"),
		Username:    getEnv("WEB_USERNAME", ""),
		Password:    getEnv("WEB_PASSWORD", ""),
		Title:       getEnv("WEB_TITLE", "PDF Processor"),
		MaxUploadMB: parseInt(getEnv("MAX_UPLOAD_MB", "100"), 100),
	}

	return cfg
}

// RegionBaseURL maps a PDF Services region code to its endpoint.
func RegionBaseURL(region string) string {
	switch strings.ToLower(strings.TrimSpace(region)) {
	case "ew1", "eu":
		return "https://pdf-services-ew1.adobe.io"
	default:
		return "https://pdf-services.adobe.io"
	}
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
