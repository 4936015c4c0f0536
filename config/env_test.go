package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_BUCKET_NAME", "123456789012-raw-data-us-east-1")
	// Empty values fall back to the tag defaults; this shields the
	// assertions from whatever the host environment carries.
	for _, key := range []string{"ENVIRONMENT", "RAW_PREFIX", "LOG_LEVEL", "STREAM_NAME",
		"ETL_JOB_NAME", "ATHENA_WORKGROUP", "GLUE_DATABASE", "COMPRESS_OUTPUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123456789012-raw-data-us-east-1", cfg.DataBucketName)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "raw/", cfg.RawPrefix)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "real-time-stream", cfg.StreamName)
	assert.Equal(t, "streamlake-etl", cfg.EtlJobName)
	assert.Equal(t, "streamlake", cfg.AthenaWorkgroup)
	assert.Equal(t, "streamlake", cfg.GlueDatabase)
	assert.False(t, cfg.CompressOutput)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_BUCKET_NAME", "bucket")
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("RAW_PREFIX", "landing/")
	t.Setenv("COMPRESS_OUTPUT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "landing/", cfg.RawPrefix)
	assert.True(t, cfg.CompressOutput)
}

func TestLoadWithoutBucket(t *testing.T) {
	// The tools load Config without a bucket; only the processor's
	// constructor insists on one.
	t.Setenv("DATA_BUCKET_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DataBucketName)
}
