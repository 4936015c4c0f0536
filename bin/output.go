package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsathena"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/jsii-runtime-go"
)

func createIngestOutputs(resources *IngestResources) {
	awscdk.NewCfnOutput(resources.Stack, jsii.String("KinesisStreamArn"), &awscdk.CfnOutputProps{
		Value:       resources.Stream.StreamArn(),
		Description: jsii.String("Kinesis Data Stream ARN"),
		ExportName:  jsii.String("KinesisStreamArn"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("RawBucketName"), &awscdk.CfnOutputProps{
		Value:       resources.RawBucket.BucketName(),
		Description: jsii.String("S3 bucket for raw data"),
		ExportName:  jsii.String("RawBucketName"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("ProcessorFunctionName"), &awscdk.CfnOutputProps{
		Value:       resources.Processor.FunctionName(),
		Description: jsii.String("Stream processor Lambda name"),
		ExportName:  jsii.String("ProcessorFunctionName"),
	})
}

func createTransformOutputs(resources *TransformResources) {
	awscdk.NewCfnOutput(resources.Stack, jsii.String("CuratedBucketName"), &awscdk.CfnOutputProps{
		Value:       resources.CuratedBucket.BucketName(),
		Description: jsii.String("S3 bucket for curated data"),
		ExportName:  jsii.String("CuratedBucketName"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("EtlJobName"), &awscdk.CfnOutputProps{
		Value:       resources.Job.Name(),
		Description: jsii.String("Glue ETL job name"),
		ExportName:  jsii.String("EtlJobName"),
	})
}

func createAnalyticsOutputs(stack awscdk.Stack, workgroup awsathena.CfnWorkGroup,
	resultsBucket awss3.IBucket) {
	awscdk.NewCfnOutput(stack, jsii.String("AthenaWorkgroupName"), &awscdk.CfnOutputProps{
		Value:       workgroup.Name(),
		Description: jsii.String("Athena workgroup"),
		ExportName:  jsii.String("AthenaWorkgroupName"),
	})

	awscdk.NewCfnOutput(stack, jsii.String("AthenaResultsBucketName"), &awscdk.CfnOutputProps{
		Value:       resultsBucket.BucketName(),
		Description: jsii.String("S3 bucket for Athena results"),
		ExportName:  jsii.String("AthenaResultsBucketName"),
	})
}
