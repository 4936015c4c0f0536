package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskinesis"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
)

type PipelineStackProps struct {
	awscdk.StackProps
	EnvName string
}

// IngestResources is what the ingest stack exposes to the stacks
// downstream of it.
type IngestResources struct {
	Stack      awscdk.Stack
	RawBucket  awss3.IBucket
	Stream     awskinesis.IStream
	Processor  awslambda.Function
	AlarmTopic awssns.ITopic
}

// TransformResources is what the transform stack exposes to analytics.
type TransformResources struct {
	Stack         awscdk.Stack
	CuratedBucket awss3.IBucket
	Database      string
	Job           awsglue.CfnJob
}
