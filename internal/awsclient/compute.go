package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
)

// instanceCacheSize bounds the per-run memoization of Name-tag lookups.
// A config rarely references more than a handful of instances.
const instanceCacheSize = 32

type ec2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// computeClient resolves instances by Name tag. Results are cached so
// the instance datasource and AWS/EC2 metric resolution share one
// DescribeInstances call per name.
type computeClient struct {
	api   ec2API
	cache *lru.Cache[string, []datasource.InstanceInfo]
}

func newComputeClient(api ec2API) *computeClient {
	cache, _ := lru.New[string, []datasource.InstanceInfo](instanceCacheSize)
	return &computeClient{api: api, cache: cache}
}

func (c *computeClient) InstancesByName(ctx context.Context, name string) ([]datasource.InstanceInfo, error) {
	if cached, ok := c.cache.Get(name); ok {
		return cached, nil
	}

	var instances []datasource.InstanceInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("tag:Name"), Values: []string{name}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("describe instances for name %q: %w", name, err)
		}

		for _, reservation := range out.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, toInstanceInfo(instance))
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	c.cache.Add(name, instances)
	return instances, nil
}

func toInstanceInfo(instance ec2types.Instance) datasource.InstanceInfo {
	info := datasource.InstanceInfo{
		ID:           aws.ToString(instance.InstanceId),
		InstanceType: string(instance.InstanceType),
	}
	if instance.CpuOptions != nil {
		info.CoreCount = aws.ToInt32(instance.CpuOptions.CoreCount)
		info.ThreadsPerCore = aws.ToInt32(instance.CpuOptions.ThreadsPerCore)
	}
	if instance.State != nil {
		info.State = string(instance.State.Name)
	}
	return info
}
