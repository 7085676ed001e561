package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{
		"LOG_LEVEL", "LOGLEVEL", "PDF_SERVICES_BASE_URL", "PDF_SERVICES_REGION",
		"PDF_SERVICES_TIMEOUT", "OUTPUT_DIR", "OUTPUT_FILE_NAME", "PORT", "MAX_UPLOAD_MB",
	} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "PDF_SERVICES_CLIENT_ID", cfg.PDFServices.ClientIDVar)
	assert.Equal(t, "PDF_SERVICES_CLIENT_SECRET", cfg.PDFServices.ClientSecretVar)
	assert.Equal(t, "https://pdf-services.adobe.io", cfg.PDFServices.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.PDFServices.Timeout)
	assert.Equal(t, "Processed", cfg.Output.Dir)
	assert.Equal(t, "ExtractTextTableWithFigureTableRendition.zip", cfg.Output.FileName)
	assert.Equal(t, "7860", cfg.Web.Port)
	assert.Equal(t, 100, cfg.Web.MaxUploadMB)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOGLEVEL", "DEBUG")
	t.Setenv("PDF_SERVICES_BASE_URL", "")
	t.Setenv("PDF_SERVICES_REGION", "ew1")
	t.Setenv("PDF_SERVICES_TIMEOUT", "bogus")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("MAX_UPLOAD_MB", "12")

	cfg := FromEnv()
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "https://pdf-services-ew1.adobe.io", cfg.PDFServices.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.PDFServices.Timeout)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, 12, cfg.Web.MaxUploadMB)

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, "warn", FromEnv().Logging.Level)
}

func TestRegionBaseURL(t *testing.T) {
	assert.Equal(t, "https://pdf-services-ew1.adobe.io", RegionBaseURL(" EU "))
	assert.Equal(t, "https://pdf-services.adobe.io", RegionBaseURL("ue1"))
	assert.Equal(t, "https://pdf-services.adobe.io", RegionBaseURL(""))
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, parseBool(v), v)
	}
	for _, v := range []string{"", "0", "false", "nope"} {
		assert.False(t, parseBool(v), v)
	}
}
