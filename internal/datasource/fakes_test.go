package datasource

import (
	"context"

	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

type fakeCompute struct {
	instances map[string][]InstanceInfo
	err       error
	lookups   []string
}

func (f *fakeCompute) InstancesByName(_ context.Context, name string) ([]InstanceInfo, error) {
	f.lookups = append(f.lookups, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.instances[name], nil
}

type fakeDatabase struct {
	instances []DBInstanceInfo
	err       error
}

func (f *fakeDatabase) DBInstances(_ context.Context) ([]DBInstanceInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.instances, nil
}

type fakeMetrics struct {
	// points are keyed by the queried dimension value
	points  map[string][]MetricPoint
	err     error
	queries []MetricQuery
}

func (f *fakeMetrics) MetricData(_ context.Context, _ timewindow.Window, q MetricQuery) ([]MetricPoint, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.points[q.DimensionValue], nil
}

type fakeLogs struct {
	rows  [][]LogField
	err   error
	specs []LogQuerySpec
}

func (f *fakeLogs) QueryLogs(_ context.Context, _ timewindow.Window, q LogQuerySpec) ([][]LogField, error) {
	f.specs = append(f.specs, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func testClients() *Clients {
	return &Clients{
		Compute:  &fakeCompute{},
		Database: &fakeDatabase{},
		Metrics:  &fakeMetrics{},
		Logs:     &fakeLogs{},
	}
}
