// Package awsclient implements the datasource client interfaces on top
// of the AWS SDK. One Clients bundle is built per run from the
// configured shared-config profile; lookups that several datasources
// repeat (EC2 instances by Name tag) are memoized for the run.
package awsclient

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
	"github.com/cloudsleuth/cloudsleuth/internal/logging"
)

const (
	defaultPollInterval    = time.Second
	defaultLogQueryTimeout = 5 * time.Minute
)

// Config selects the AWS account surface and tunes log query polling.
type Config struct {
	// Profile is the shared-config profile to authenticate with.
	Profile string

	// Region optionally overrides the profile's region.
	Region string

	// PollInterval is the wait between Logs Insights status checks.
	// Zero means one second.
	PollInterval time.Duration

	// LogQueryTimeout bounds how long one Logs Insights query may stay
	// incomplete before it is stopped and reported as timed out. Zero
	// means five minutes.
	LogQueryTimeout time.Duration
}

// New loads the profile's AWS configuration and wires service clients
// into a datasource.Clients bundle.
func New(ctx context.Context, cfg Config) (*datasource.Clients, error) {
	logger := logging.GetLogger("awsclient")

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithSharedConfigProfile(cfg.Profile),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for profile %q: %w", cfg.Profile, err)
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	queryTimeout := cfg.LogQueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = defaultLogQueryTimeout
	}

	logger.Debug("AWS clients ready (profile=%s region=%s)", cfg.Profile, awsCfg.Region)

	return &datasource.Clients{
		Compute:  newComputeClient(ec2.NewFromConfig(awsCfg)),
		Database: &databaseClient{api: rds.NewFromConfig(awsCfg)},
		Metrics:  &metricsClient{api: cloudwatch.NewFromConfig(awsCfg)},
		Logs: &logsClient{
			api:          cloudwatchlogs.NewFromConfig(awsCfg),
			pollInterval: pollInterval,
			queryTimeout: queryTimeout,
			logger:       logging.GetLogger("awsclient.logs"),
		},
	}, nil
}
