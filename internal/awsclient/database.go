package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
)

type rdsAPI interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

type databaseClient struct {
	api rdsAPI
}

func (c *databaseClient) DBInstances(ctx context.Context) ([]datasource.DBInstanceInfo, error) {
	var instances []datasource.DBInstanceInfo
	var marker *string

	for {
		out, err := c.api.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("describe db instances: %w", err)
		}

		for _, db := range out.DBInstances {
			instances = append(instances, datasource.DBInstanceInfo{
				Identifier:    aws.ToString(db.DBInstanceIdentifier),
				Class:         aws.ToString(db.DBInstanceClass),
				Engine:        aws.ToString(db.Engine),
				EngineVersion: aws.ToString(db.EngineVersion),
				StorageType:   aws.ToString(db.StorageType),
				Status:        aws.ToString(db.DBInstanceStatus),
				MultiAZ:       aws.ToBool(db.MultiAZ),
			})
		}

		if out.Marker == nil {
			break
		}
		marker = out.Marker
	}

	return instances, nil
}
