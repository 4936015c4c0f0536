package main

import (
	"log"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/joho/godotenv"

	"github.com/streamlake/pipeline/config"
)

func main() {
	defer jsii.Close()

	// Load .env variables one time; absence is fine outside local dev
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using process environment")
	}

	envName := os.Getenv("ENVIRONMENT")
	if envName == "" {
		envName = "dev"
	}

	app := awscdk.NewApp(nil)
	props := &PipelineStackProps{
		StackProps: awscdk.StackProps{
			Env: env(),
		},
		EnvName: envName,
	}

	ingest := NewIngestStack(app, "IngestStack", props)
	transform := NewTransformStack(app, "TransformStack", props, ingest)
	NewAnalyticsStack(app, "AnalyticsStack", props, transform)

	app.Synth(nil)
}

func env() *awscdk.Environment {
	region := os.Getenv("ACCOUNT_REGION")
	if region == "" {
		region = "us-east-1"
	}
	return &awscdk.Environment{
		Account: jsii.String(config.CheckEnv("ACCOUNT_ID")),
		Region:  jsii.String(region),
	}
}
