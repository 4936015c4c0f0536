package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatchactions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskinesis"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/jsii-runtime-go"
)

func metricAlarm(stack awscdk.Stack, name string, description string,
	metric awscloudwatch.IMetric, threshold float64, topic awssns.ITopic) awscloudwatch.Alarm {
	alarm := awscloudwatch.NewAlarm(stack, jsii.String(name), &awscloudwatch.AlarmProps{
		AlarmName:          jsii.String(name),
		AlarmDescription:   jsii.String(description),
		Metric:             metric,
		Threshold:          jsii.Number(threshold),
		EvaluationPeriods:  jsii.Number(1),
		ComparisonOperator: awscloudwatch.ComparisonOperator_GREATER_THAN_OR_EQUAL_TO_THRESHOLD,
		TreatMissingData:   awscloudwatch.TreatMissingData_NOT_BREACHING,
	})
	alarm.AddAlarmAction(awscloudwatchactions.NewSnsAction(topic))

	return alarm
}

func createIngestAlarms(stack awscdk.Stack, processorFn awslambda.Function,
	stream awskinesis.IStream, topic awssns.ITopic) {
	metricAlarm(stack, "ProcessorErrorsAlarm", "Alert when the stream processor errors",
		awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
			Namespace:  jsii.String("AWS/Lambda"),
			MetricName: jsii.String("Errors"),
			Statistic:  jsii.String("Sum"),
			Period:     awscdk.Duration_Minutes(jsii.Number(1)),
			DimensionsMap: &map[string]*string{
				"FunctionName": processorFn.FunctionName(),
			},
		}), 1, topic)

	// One minute of iterator lag means the processor is not keeping up
	metricAlarm(stack, "StreamIteratorAgeAlarm", "Alert when stream consumption lags",
		awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
			Namespace:  jsii.String("AWS/Kinesis"),
			MetricName: jsii.String("GetRecords.IteratorAgeMilliseconds"),
			Statistic:  jsii.String("Maximum"),
			Period:     awscdk.Duration_Minutes(jsii.Number(5)),
			DimensionsMap: &map[string]*string{
				"StreamName": stream.StreamName(),
			},
		}), 60000, topic)
}
