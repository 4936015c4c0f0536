// Package config loads pipeline configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runtime settings shared by the Lambda processor and
// the operational tools. The CDK app injects DATA_BUCKET_NAME into the
// processor's environment; the tools don't need it, so it is optional
// here and enforced where a bucket is actually written.
type Config struct {
	Environment     string `env:"ENVIRONMENT" envDefault:"dev"`
	DataBucketName  string `env:"DATA_BUCKET_NAME"`
	RawPrefix       string `env:"RAW_PREFIX" envDefault:"raw/"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	StreamName      string `env:"STREAM_NAME" envDefault:"real-time-stream"`
	EtlJobName      string `env:"ETL_JOB_NAME" envDefault:"streamlake-etl"`
	AthenaWorkgroup string `env:"ATHENA_WORKGROUP" envDefault:"streamlake"`
	GlueDatabase    string `env:"GLUE_DATABASE" envDefault:"streamlake"`
	CompressOutput  bool   `env:"COMPRESS_OUTPUT" envDefault:"false"`
}

// Load reads an optional .env file and parses the environment into a
// Config. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// CheckEnv returns the value of a required environment variable and
// exits the process when it is unset. Used by the CDK app, where a
// missing value would otherwise synth a broken template.
func CheckEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("WARNING: %s environment variable is required!", key)
	}
	return value
}
