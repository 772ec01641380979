package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// metricPeriodSeconds is the resolution of every queried series.
const metricPeriodSeconds = 60

type cloudwatchAPI interface {
	GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

type metricsClient struct {
	api cloudwatchAPI
}

func (c *metricsClient) MetricData(ctx context.Context, w timewindow.Window, q datasource.MetricQuery) ([]datasource.MetricPoint, error) {
	stat := &cwtypes.MetricStat{
		Metric: &cwtypes.Metric{
			Namespace:  aws.String(q.Namespace),
			MetricName: aws.String(q.MetricName),
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(q.DimensionName), Value: aws.String(q.DimensionValue)},
			},
		},
		Period: aws.Int32(metricPeriodSeconds),
		Stat:   aws.String(q.Stat),
	}
	if q.Unit != "" {
		stat.Unit = cwtypes.StandardUnit(q.Unit)
	}

	var points []datasource.MetricPoint
	var nextToken *string

	for {
		out, err := c.api.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
			StartTime: aws.Time(w.Start),
			EndTime:   aws.Time(w.End),
			NextToken: nextToken,
			MetricDataQueries: []cwtypes.MetricDataQuery{
				{Id: aws.String(q.ID), MetricStat: stat},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("get metric data for %s/%s: %w", q.Namespace, q.MetricName, err)
		}

		for _, result := range out.MetricDataResults {
			for i := range result.Timestamps {
				if i >= len(result.Values) {
					break
				}
				points = append(points, datasource.MetricPoint{
					Timestamp: result.Timestamps[i],
					Value:     result.Values[i],
				})
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return points, nil
}
