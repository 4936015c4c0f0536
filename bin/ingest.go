package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskinesis"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambdaeventsources"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// NewIngestStack creates the real-time ingestion path: a Kinesis
// stream, the raw-zone bucket and the processor Lambda between them.
func NewIngestStack(scope constructs.Construct, id string, props *PipelineStackProps) *IngestResources {
	stack := initializeStack(scope, id, props)

	alarmTopic := createAlarmTopic(stack)

	rawBucket := createDataBucket(stack, "RawDataBucket",
		fmt.Sprintf("%s-raw-data-%s", *stack.Account(), *stack.Region()), true)

	stream := awskinesis.NewStream(stack, jsii.String("KinesisStream"), &awskinesis.StreamProps{
		StreamName: jsii.String("real-time-stream"),
		// 1 shard to start; scale on the iterator-age alarm
		ShardCount:      jsii.Number(1),
		RetentionPeriod: awscdk.Duration_Hours(jsii.Number(24)),
		Encryption:      awskinesis.StreamEncryption_MANAGED,
	})

	deadLetterQueue := createProcessorDLQ(stack)
	processorRole := createProcessorRole(stack, stream, rawBucket)
	processorFn := createProcessorFunction(stack, props, rawBucket, processorRole, deadLetterQueue)

	processorFn.AddEventSource(awslambdaeventsources.NewKinesisEventSource(stream,
		&awslambdaeventsources.KinesisEventSourceProps{
			BatchSize:             jsii.Number(100),
			StartingPosition:      awslambda.StartingPosition_TRIM_HORIZON,
			RetryAttempts:         jsii.Number(3),
			MaxRecordAge:          awscdk.Duration_Hours(jsii.Number(1)),
			ParallelizationFactor: jsii.Number(1),
			BisectBatchOnError:    jsii.Bool(true),
			OnFailure:             awslambdaeventsources.NewSqsDlq(deadLetterQueue),
		}))

	awslogs.NewLogGroup(stack, jsii.String("ProcessorLogGroup"), &awslogs.LogGroupProps{
		LogGroupName:  jsii.String(fmt.Sprintf("/aws/lambda/%s", *processorFn.FunctionName())),
		Retention:     awslogs.RetentionDays_ONE_WEEK,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	createIngestAlarms(stack, processorFn, stream, alarmTopic)

	resources := &IngestResources{
		Stack:      stack,
		RawBucket:  rawBucket,
		Stream:     stream,
		Processor:  processorFn,
		AlarmTopic: alarmTopic,
	}
	createIngestOutputs(resources)

	return resources
}

func createProcessorDLQ(stack awscdk.Stack) awssqs.IQueue {
	return awssqs.NewQueue(stack, jsii.String("ProcessorDLQ"), &awssqs.QueueProps{
		QueueName:       jsii.String("stream-processor-dlq"),
		RetentionPeriod: awscdk.Duration_Days(jsii.Number(7)),
	})
}

func createProcessorRole(stack awscdk.Stack, stream awskinesis.IStream, rawBucket awss3.IBucket) awsiam.Role {
	role := awsiam.NewRole(stack, jsii.String("ProcessorRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("lambda.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(
				jsii.String("service-role/AWSLambdaBasicExecutionRole")),
		},
	})

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect: awsiam.Effect_ALLOW,
		Actions: jsii.Strings(
			"kinesis:DescribeStreamSummary",
			"kinesis:GetRecords",
			"kinesis:GetShardIterator",
			"kinesis:ListShards",
			"kinesis:SubscribeToShard",
		),
		Resources: jsii.Strings(*stream.StreamArn()),
	}))

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect: awsiam.Effect_ALLOW,
		Actions: jsii.Strings(
			"s3:PutObject",
			"s3:GetObject",
			"s3:ListBucket",
		),
		Resources: jsii.Strings(
			*rawBucket.BucketArn(),
			fmt.Sprintf("%s/*", *rawBucket.BucketArn()),
		),
	}))

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect: awsiam.Effect_ALLOW,
		Actions: jsii.Strings(
			"cloudwatch:PutMetricData",
		),
		// PutMetricData cannot be scoped to a resource
		Resources: jsii.Strings("*"),
	}))

	return role
}

func createProcessorFunction(stack awscdk.Stack, props *PipelineStackProps,
	rawBucket awss3.IBucket, role awsiam.IRole, dlq awssqs.IQueue) awslambda.Function {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Could not get file name")
	}
	lambdaDir := filepath.Join(filepath.Dir(filename), "lambda")

	return awslambda.NewFunction(stack, jsii.String("KinesisProcessor"), &awslambda.FunctionProps{
		FunctionName: jsii.String("kinesis-stream-processor"),
		Runtime:      awslambda.Runtime_PROVIDED_AL2(),
		Handler:      jsii.String("bootstrap"),
		Architecture: awslambda.Architecture_X86_64(),
		MemorySize:   jsii.Number(256),
		Timeout:      awscdk.Duration_Minutes(jsii.Number(5)),
		Role:         role,
		// Caps stream fan-out so a bad deploy cannot starve the account
		ReservedConcurrentExecutions: jsii.Number(10),
		DeadLetterQueue:              dlq,
		Code:                         awslambda.Code_FromAsset(jsii.String(lambdaDir), &awss3assets.AssetOptions{}),
		Environment: &map[string]*string{
			"DATA_BUCKET_NAME": rawBucket.BucketName(),
			"RAW_PREFIX":       jsii.String("raw/"),
			"LOG_LEVEL":        jsii.String("info"),
			"ENVIRONMENT":      jsii.String(props.EnvName),
		},
		Tracing: awslambda.Tracing_ACTIVE,
	})
}
