package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// common.go
func initializeStack(scope constructs.Construct, id string, props *PipelineStackProps) awscdk.Stack {
	var sprops awscdk.StackProps
	if props != nil {
		sprops = props.StackProps
	}

	stack := awscdk.NewStack(scope, &id, &sprops)
	awscdk.Tags_Of(stack).Add(jsii.String("environment"), jsii.String(props.EnvName), nil)
	awscdk.Tags_Of(stack).Add(jsii.String("project"), jsii.String("streamlake"), nil)

	return stack
}

// createDataBucket applies the lake-wide bucket posture: versioned,
// S3-managed encryption, SSL enforced, no public access. Data zones
// are retained on stack deletion; scratch zones are not.
func createDataBucket(stack awscdk.Stack, id string, name string, retain bool) awss3.IBucket {
	removal := awscdk.RemovalPolicy_DESTROY
	autoDelete := true
	if retain {
		removal = awscdk.RemovalPolicy_RETAIN
		autoDelete = false
	}

	return awss3.NewBucket(stack, jsii.String(id), &awss3.BucketProps{
		BucketName:        jsii.String(name),
		RemovalPolicy:     removal,
		AutoDeleteObjects: jsii.Bool(autoDelete),
		Versioned:         jsii.Bool(true),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
	})
}
