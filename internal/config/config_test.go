package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.FolioMaxAttempts)
	assert.Equal(t, "disk", cfg.EvidenceBackend)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(10485760), cfg.MaxUploadBytes)
	assert.False(t, cfg.ProdLike())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEDLEAVE_HTTP_ADDR", ":9090")
	t.Setenv("MEDLEAVE_FOLIO_MAX_ATTEMPTS", "5")
	t.Setenv("MEDLEAVE_CORS_ALLOWED_ORIGINS", "https://a.example.edu,https://b.example.edu")
	t.Setenv("MEDLEAVE_EVIDENCE_BACKEND", "S3")
	t.Setenv("MEDLEAVE_S3_BUCKET", "licenses")
	t.Setenv("MEDLEAVE_S3_ENDPOINT", "minio:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.FolioMaxAttempts)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "s3", cfg.EvidenceBackend)
	assert.Equal(t, "licenses", cfg.S3().Bucket)
	assert.Equal(t, "evidence", cfg.S3().Prefix)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad attempts":      {"MEDLEAVE_FOLIO_MAX_ATTEMPTS": "0"},
		"bad backend":       {"MEDLEAVE_EVIDENCE_BACKEND": "ftp"},
		"s3 without bucket": {"MEDLEAVE_EVIDENCE_BACKEND": "s3"},
		"upload too large":  {"MEDLEAVE_MAX_UPLOAD_BYTES": "20971520"},
		"bad log format":    {"MEDLEAVE_LOG_FORMAT": "xml"},
		"bad duration":      {"MEDLEAVE_JWT_TTL": "soon"},
		"prod default jwt":  {"MEDLEAVE_APP_ENV": "production"},
		"prod short jwt":    {"MEDLEAVE_APP_ENV": "release", "MEDLEAVE_JWT_SECRET": "short"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProdWithSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEDLEAVE_APP_ENV", "Prod")
	t.Setenv("MEDLEAVE_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.ProdLike())
}
