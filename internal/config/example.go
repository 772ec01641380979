package config

import (
	"fmt"
	"os"
	"path/filepath"

	goyaml "gopkg.in/yaml.v3"
)

// Example returns a fully populated configuration that demonstrates every
// section. Used by `cloudsleuth config init` to scaffold a starting file.
func Example() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		General: GeneralConfig{
			Profile:  "default",
			TimeZone: "UTC",
		},
		Diagnosis: DiagnosisConfig{
			Provider:  ProviderAnthropic,
			Model:     "claude-sonnet-4-5",
			MaxTokens: 2048,
		},
		AppDescriptions: []AppDescriptionConfig{
			{
				OrderNo:     0,
				Description: "Order service: Go HTTP API on EC2 backed by a PostgreSQL RDS instance.",
			},
		},
		EC2Instances: []EC2Config{
			{OrderNo: 1, InstanceName: "order-service"},
		},
		RDSInstances: []RDSConfig{
			{OrderNo: 2, DBIdentifier: "order-db"},
		},
		CloudwatchMetrics: []CloudwatchMetricConfig{
			{
				OrderNo:          3,
				MetricIdentifier: "orderServiceCPU",
				MetricNamespace:  "AWS/EC2",
				MetricName:       "CPUUtilization",
				MetricStat:       "Average",
				MetricUnit:       "Percent",
				DimensionName:    "InstanceId",
				DimensionValue:   "order-service",
			},
			{
				OrderNo:          4,
				MetricIdentifier: "orderDbConnections",
				MetricNamespace:  "AWS/RDS",
				MetricName:       "DatabaseConnections",
				MetricStat:       "Maximum",
				DimensionName:    "DBInstanceIdentifier",
				DimensionValue:   "order-db",
			},
		},
		CloudwatchLogInsights: []CloudwatchLogInsightConfig{
			{
				OrderNo:      5,
				Description:  "Order service errors in the window",
				LogGroupName: "/aws/ec2/order-service",
				Query: "fields @timestamp, @message | filter @message like /ERROR/ " +
					"| sort @timestamp desc | limit 50",
				ResultColumns: []string{"@timestamp", "@message"},
			},
		},
	}
}

// WriteExample writes the example configuration to path. The write is
// atomic: the file is staged in the target directory and renamed into
// place, so a crash never leaves a half-written config behind. Fails if
// path already exists.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return NewConfigError(fmt.Sprintf("refusing to overwrite existing file: %s", path))
	}

	data, err := goyaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cloudsleuth-config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move config into place: %w", err)
	}

	return nil
}
