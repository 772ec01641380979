package datasource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

func testWindow(t *testing.T) timewindow.Window {
	t.Helper()
	w, err := timewindow.Resolve(
		time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), time.Hour, nil, nil, time.UTC)
	require.NoError(t, err)
	return w
}

func TestFromConfigKeepsDeclarationOrder(t *testing.T) {
	cfg := &config.Config{
		AppDescriptions: []config.AppDescriptionConfig{
			{OrderNo: 5, Description: "a service"},
		},
		EC2Instances: []config.EC2Config{
			{OrderNo: 5, InstanceName: "web-1"},
			{OrderNo: 2, InstanceName: "web-2"},
		},
		RDSInstances: []config.RDSConfig{
			{OrderNo: 5, DBIdentifier: "db-1"},
		},
		CloudwatchMetrics: []config.CloudwatchMetricConfig{
			{OrderNo: 1, MetricIdentifier: "cpu"},
		},
		CloudwatchLogInsights: []config.CloudwatchLogInsightConfig{
			{OrderNo: 0, LogGroupName: "/aws/app"},
		},
	}

	sources := FromConfig(cfg)
	require.Len(t, sources, 6)

	kinds := make([]Kind, 0, len(sources))
	orders := make([]int, 0, len(sources))
	for _, s := range sources {
		kinds = append(kinds, s.Kind())
		orders = append(orders, s.OrderNo())
	}

	// declaration order, untouched by order numbers: sorting is the
	// orchestrator's job
	assert.Equal(t, []Kind{
		KindAppDescription, KindEC2, KindEC2, KindRDS, KindMetric, KindLogInsight,
	}, kinds)
	assert.Equal(t, []int{5, 5, 2, 5, 1, 0}, orders)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "app description",
		NewAppDescription(config.AppDescriptionConfig{}).Label())
	assert.Equal(t, "ec2 instance web-1",
		NewComputeInstance(config.EC2Config{InstanceName: "web-1"}).Label())
	assert.Equal(t, "rds instance orders-db",
		NewDatabaseInstance(config.RDSConfig{DBIdentifier: "orders-db"}).Label())
	assert.Equal(t, "cloudwatch metric cpuAvg",
		NewMetricSeries(config.CloudwatchMetricConfig{MetricIdentifier: "cpuAvg"}).Label())
	assert.Equal(t, "cloudwatch log insight /aws/app",
		NewLogQuery(config.CloudwatchLogInsightConfig{LogGroupName: "/aws/app"}).Label())
}

func TestErrorFormatting(t *testing.T) {
	leaf := NewError("ec2 instance web-1", ReasonNotFound, "unable to find EC2 instance with name: %s", "web-1")
	assert.Equal(t, "ec2 instance web-1: unable to find EC2 instance with name: web-1", leaf.Error())
	assert.Equal(t, ReasonNotFound, leaf.Reason)
	assert.Nil(t, leaf.Unwrap())

	cause := assert.AnError
	wrapped := WrapError("rds instance db", ReasonQueryFailed, cause, "describe db instances failed")
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "describe db instances failed")
}
