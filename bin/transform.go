package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	etlJobName   = "streamlake-etl"
	databaseName = "streamlake"
)

// NewTransformStack creates the batch transformation path: the curated
// bucket, the Glue ETL job moving raw JSON into it, and a crawler that
// keeps the catalog in step with what the job writes.
func NewTransformStack(scope constructs.Construct, id string, props *PipelineStackProps,
	ingest *IngestResources) *TransformResources {
	stack := initializeStack(scope, id, props)

	curatedBucket := createDataBucket(stack, "CuratedDataBucket",
		fmt.Sprintf("%s-curated-data-%s", *stack.Account(), *stack.Region()), true)

	scriptAsset := createEtlScriptAsset(stack)
	glueRole := createGlueRole(stack, ingest.RawBucket, curatedBucket, scriptAsset)

	awsglue.NewCfnDatabase(stack, jsii.String("LakeDatabase"), &awsglue.CfnDatabaseProps{
		CatalogId: stack.Account(),
		DatabaseInput: &awsglue.CfnDatabase_DatabaseInputProperty{
			Name:        jsii.String(databaseName),
			Description: jsii.String("Curated zone of the streaming data lake"),
		},
	})

	job := createEtlJob(stack, glueRole, scriptAsset, ingest.RawBucket, curatedBucket)
	createCuratedCrawler(stack, glueRole, curatedBucket)
	createTransformAlarms(stack, ingest.AlarmTopic)

	resources := &TransformResources{
		Stack:         stack,
		CuratedBucket: curatedBucket,
		Database:      databaseName,
		Job:           job,
	}
	createTransformOutputs(resources)

	return resources
}

func createEtlScriptAsset(stack awscdk.Stack) awss3assets.Asset {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Could not get file name")
	}
	scriptPath := filepath.Join(filepath.Dir(filename), "glue", "etl_job.py")

	return awss3assets.NewAsset(stack, jsii.String("EtlScript"), &awss3assets.AssetProps{
		Path: jsii.String(scriptPath),
	})
}

func createGlueRole(stack awscdk.Stack, rawBucket awss3.IBucket,
	curatedBucket awss3.IBucket, scriptAsset awss3assets.Asset) awsiam.Role {
	role := awsiam.NewRole(stack, jsii.String("GlueServiceRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("glue.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(
				jsii.String("service-role/AWSGlueServiceRole")),
		},
	})

	rawBucket.GrantRead(role, nil)
	curatedBucket.GrantReadWrite(role, nil)
	scriptAsset.GrantRead(role)

	return role
}

func createEtlJob(stack awscdk.Stack, role awsiam.IRole, scriptAsset awss3assets.Asset,
	rawBucket awss3.IBucket, curatedBucket awss3.IBucket) awsglue.CfnJob {
	return awsglue.NewCfnJob(stack, jsii.String("EtlJob"), &awsglue.CfnJobProps{
		Name: jsii.String(etlJobName),
		Role: role.RoleArn(),
		Command: &awsglue.CfnJob_JobCommandProperty{
			Name:           jsii.String("glueetl"),
			PythonVersion:  jsii.String("3"),
			ScriptLocation: scriptAsset.S3ObjectUrl(),
		},
		DefaultArguments: &map[string]*string{
			"--job-language":   jsii.String("python"),
			"--enable-metrics": jsii.String("true"),
			"--raw_bucket":     rawBucket.BucketName(),
			"--curated_bucket": curatedBucket.BucketName(),
			"--database":       jsii.String(databaseName),
		},
		GlueVersion:     jsii.String("4.0"),
		WorkerType:      jsii.String("G.1X"),
		NumberOfWorkers: jsii.Number(2),
		MaxRetries:      jsii.Number(1),
		Timeout:         jsii.Number(60),
	})
}

func createCuratedCrawler(stack awscdk.Stack, role awsiam.IRole, curatedBucket awss3.IBucket) awsglue.CfnCrawler {
	return awsglue.NewCfnCrawler(stack, jsii.String("CuratedCrawler"), &awsglue.CfnCrawlerProps{
		Name:         jsii.String("streamlake-curated-crawler"),
		Role:         role.RoleArn(),
		DatabaseName: jsii.String(databaseName),
		Targets: &awsglue.CfnCrawler_TargetsProperty{
			S3Targets: []interface{}{
				&awsglue.CfnCrawler_S3TargetProperty{
					Path: jsii.String(fmt.Sprintf("s3://%s/curated/", *curatedBucket.BucketName())),
				},
			},
		},
		Schedule: &awsglue.CfnCrawler_ScheduleProperty{
			ScheduleExpression: jsii.String("cron(0 * * * ? *)"),
		},
	})
}

func createTransformAlarms(stack awscdk.Stack, topic awssns.ITopic) {
	metricAlarm(stack, "EtlJobFailureAlarm", "Alert when the ETL job fails tasks",
		awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
			Namespace:  jsii.String("Glue"),
			MetricName: jsii.String("glue.driver.aggregate.numFailedTasks"),
			Statistic:  jsii.String("Sum"),
			Period:     awscdk.Duration_Minutes(jsii.Number(5)),
			DimensionsMap: &map[string]*string{
				"JobName":  jsii.String(etlJobName),
				"JobRunId": jsii.String("ALL"),
				"Type":     jsii.String("count"),
			},
		}), 1, topic)
}
