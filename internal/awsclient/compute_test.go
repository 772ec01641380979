package awsclient

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
)

type fakeEC2API struct {
	pages  []*ec2.DescribeInstancesOutput
	err    error
	calls  int
	inputs []*ec2.DescribeInstancesInput
}

func (f *fakeEC2API) DescribeInstances(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func runningInstance(id, instanceType string) ec2types.Instance {
	return ec2types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: ec2types.InstanceType(instanceType),
		CpuOptions: &ec2types.CpuOptions{
			CoreCount:      aws.Int32(1),
			ThreadsPerCore: aws.Int32(2),
		},
		State: &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
	}
}

func TestInstancesByName(t *testing.T) {
	api := &fakeEC2API{pages: []*ec2.DescribeInstancesOutput{{
		Reservations: []ec2types.Reservation{
			{Instances: []ec2types.Instance{runningInstance("i-0abc", "t3a.medium")}},
		},
	}}}

	client := newComputeClient(api)
	instances, err := client.InstancesByName(context.Background(), "web-1")
	require.NoError(t, err)

	require.Len(t, instances, 1)
	assert.Equal(t, datasource.InstanceInfo{
		ID:             "i-0abc",
		InstanceType:   "t3a.medium",
		CoreCount:      1,
		ThreadsPerCore: 2,
		State:          "running",
	}, instances[0])

	require.Len(t, api.inputs, 1)
	require.Len(t, api.inputs[0].Filters, 1)
	assert.Equal(t, "tag:Name", aws.ToString(api.inputs[0].Filters[0].Name))
	assert.Equal(t, []string{"web-1"}, api.inputs[0].Filters[0].Values)
}

func TestInstancesByNameMemoizes(t *testing.T) {
	api := &fakeEC2API{pages: []*ec2.DescribeInstancesOutput{{
		Reservations: []ec2types.Reservation{
			{Instances: []ec2types.Instance{runningInstance("i-0abc", "t3.micro")}},
		},
	}}}

	client := newComputeClient(api)
	first, err := client.InstancesByName(context.Background(), "web-1")
	require.NoError(t, err)
	second, err := client.InstancesByName(context.Background(), "web-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.calls, "second lookup should hit the cache")
}

func TestInstancesByNamePaginates(t *testing.T) {
	api := &fakeEC2API{pages: []*ec2.DescribeInstancesOutput{
		{
			Reservations: []ec2types.Reservation{
				{Instances: []ec2types.Instance{runningInstance("i-first", "t3.micro")}},
			},
			NextToken: aws.String("page-2"),
		},
		{
			Reservations: []ec2types.Reservation{
				{Instances: []ec2types.Instance{runningInstance("i-second", "t3.micro")}},
			},
		},
	}}

	client := newComputeClient(api)
	instances, err := client.InstancesByName(context.Background(), "web")
	require.NoError(t, err)

	require.Len(t, instances, 2)
	assert.Equal(t, "i-first", instances[0].ID)
	assert.Equal(t, "i-second", instances[1].ID)
	assert.Equal(t, 2, api.calls)
	assert.Equal(t, "page-2", aws.ToString(api.inputs[1].NextToken))
}

func TestInstancesByNameHandlesSparseFields(t *testing.T) {
	api := &fakeEC2API{pages: []*ec2.DescribeInstancesOutput{{
		Reservations: []ec2types.Reservation{
			{Instances: []ec2types.Instance{{InstanceId: aws.String("i-bare")}}},
		},
	}}}

	client := newComputeClient(api)
	instances, err := client.InstancesByName(context.Background(), "bare")
	require.NoError(t, err)

	require.Len(t, instances, 1)
	assert.Equal(t, "i-bare", instances[0].ID)
	assert.Zero(t, instances[0].CoreCount)
	assert.Empty(t, instances[0].State)
}

func TestInstancesByNameError(t *testing.T) {
	apiErr := errors.New("unauthorized")
	client := newComputeClient(&fakeEC2API{err: apiErr})

	_, err := client.InstancesByName(context.Background(), "web-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), `describe instances for name "web-1"`)
}
