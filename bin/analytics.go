package main

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsathena"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const workgroupName = "streamlake"

// NewAnalyticsStack creates the query surface over the curated zone:
// an Athena workgroup with its results bucket and a starter query.
func NewAnalyticsStack(scope constructs.Construct, id string, props *PipelineStackProps,
	transform *TransformResources) awscdk.Stack {
	stack := initializeStack(scope, id, props)

	resultsBucket := createResultsBucket(stack)
	workgroup := createWorkgroup(stack, resultsBucket)
	createNamedQueries(stack, workgroup, transform)
	createAnalyticsOutputs(stack, workgroup, resultsBucket)

	return stack
}

func createResultsBucket(stack awscdk.Stack) awss3.IBucket {
	return awss3.NewBucket(stack, jsii.String("AthenaResultsBucket"), &awss3.BucketProps{
		BucketName: jsii.String(fmt.Sprintf("%s-athena-results-%s",
			*stack.Account(), *stack.Region())),
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects: jsii.Bool(true),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
		LifecycleRules: &[]*awss3.LifecycleRule{
			{
				// Query results are scratch data
				Expiration: awscdk.Duration_Days(jsii.Number(30)),
			},
		},
	})
}

func createWorkgroup(stack awscdk.Stack, resultsBucket awss3.IBucket) awsathena.CfnWorkGroup {
	return awsathena.NewCfnWorkGroup(stack, jsii.String("AnalyticsWorkgroup"), &awsathena.CfnWorkGroupProps{
		Name:                  jsii.String(workgroupName),
		Description:           jsii.String("Workgroup for querying the curated data lake"),
		RecursiveDeleteOption: jsii.Bool(true),
		WorkGroupConfiguration: &awsathena.CfnWorkGroup_WorkGroupConfigurationProperty{
			EnforceWorkGroupConfiguration:   jsii.Bool(true),
			PublishCloudWatchMetricsEnabled: jsii.Bool(true),
			// 1 GiB per query keeps a runaway scan from burning budget
			BytesScannedCutoffPerQuery: jsii.Number(1073741824),
			ResultConfiguration: &awsathena.CfnWorkGroup_ResultConfigurationProperty{
				OutputLocation: jsii.String(fmt.Sprintf("s3://%s/results/", *resultsBucket.BucketName())),
				EncryptionConfiguration: &awsathena.CfnWorkGroup_EncryptionConfigurationProperty{
					EncryptionOption: jsii.String("SSE_S3"),
				},
			},
		},
	})
}

func createNamedQueries(stack awscdk.Stack, workgroup awsathena.CfnWorkGroup,
	transform *TransformResources) {
	recent := awsathena.NewCfnNamedQuery(stack, jsii.String("RecentEventsQuery"), &awsathena.CfnNamedQueryProps{
		Name:        jsii.String("recent-events"),
		Description: jsii.String("Latest curated events by partition"),
		Database:    jsii.String(transform.Database),
		WorkGroup:   workgroup.Name(),
		QueryString: jsii.String(
			"SELECT *\n" +
				"FROM curated\n" +
				"WHERE year = year(current_date)\n" +
				"  AND month = month(current_date)\n" +
				"ORDER BY ingestion_timestamp DESC\n" +
				"LIMIT 100;"),
	})
	recent.AddDependency(workgroup)
}
