// Package config loads and validates the cloudsleuth configuration file.
//
// The file is YAML with an explicit schema version, a general section
// (AWS profile, time zone), a diagnosis section (LLM provider), optional
// tracing/metrics sections, and one list per datasource kind. Every
// datasource entry carries an order_no that fixes its position in the
// assembled prompt.
package config

import (
	"fmt"
	"regexp"
	"time"
)

// metricIDPattern is CloudWatch's rule for metric query ids: first
// character lowercase, the rest alphanumeric or underscore.
var metricIDPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]*$`)

// SchemaVersion is the config file schema this build understands.
const SchemaVersion = "v1"

// Diagnosis provider names accepted in the config file.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config is the top-level structure of the configuration file.
type Config struct {
	// SchemaVersion is the explicit config schema version (e.g., "v1")
	SchemaVersion string `yaml:"schema_version"`

	General   GeneralConfig   `yaml:"general"`
	Diagnosis DiagnosisConfig `yaml:"diagnosis"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// Datasource lists, one per kind. Entries are ordered into the prompt
	// by order_no; ties keep the declaration order below (app descriptions
	// first, then EC2, RDS, CloudWatch metrics, log queries).
	AppDescriptions       []AppDescriptionConfig       `yaml:"app_description"`
	EC2Instances          []EC2Config                  `yaml:"ec2"`
	RDSInstances          []RDSConfig                  `yaml:"rds"`
	CloudwatchMetrics     []CloudwatchMetricConfig     `yaml:"cloudwatch_metric"`
	CloudwatchLogInsights []CloudwatchLogInsightConfig `yaml:"cloudwatch_log_insight"`
}

// GeneralConfig holds run-wide settings.
type GeneralConfig struct {
	// Profile is the AWS shared-config profile used for every service client.
	Profile string `yaml:"profile"`

	// Region optionally overrides the profile's region.
	Region string `yaml:"region"`

	// TimeZone is an IANA zone name used to render timestamps in the
	// prompt. Empty means UTC.
	TimeZone string `yaml:"time_zone"`
}

// DiagnosisConfig selects and parameterizes the LLM provider.
type DiagnosisConfig struct {
	// Provider is "anthropic" or "openai". Empty defaults to "anthropic".
	Provider string `yaml:"provider"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`

	// MaxTokens caps the diagnosis length. Zero defaults to 2048.
	MaxTokens int `yaml:"max_tokens"`

	// APIKey is used when the provider's environment variable
	// (ANTHROPIC_API_KEY / OPENAI_API_KEY) is unset. The env var wins.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the openai provider's endpoint so any
	// OpenAI-compatible service can be used. Ignored by anthropic.
	BaseURL string `yaml:"base_url"`
}

// TracingConfig enables OTLP span export for the run.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC endpoint (host:port).
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `yaml:"insecure"`

	// TLSCAPath points at a CA certificate for TLS verification.
	TLSCAPath string `yaml:"tls_ca_path"`
}

// MetricsConfig enables a best-effort push of per-run fetch metrics.
type MetricsConfig struct {
	// PushgatewayURL is the Prometheus Pushgateway base URL. Empty
	// disables the push.
	PushgatewayURL string `yaml:"pushgateway_url"`

	// Job is the Pushgateway job label. Empty defaults to "cloudsleuth".
	Job string `yaml:"job"`
}

// AppDescriptionConfig contributes free text describing the application.
type AppDescriptionConfig struct {
	OrderNo     int    `yaml:"order_no"`
	Description string `yaml:"description"`
}

// EC2Config names one EC2 instance by its Name tag.
type EC2Config struct {
	OrderNo      int    `yaml:"order_no"`
	InstanceName string `yaml:"instance_name"`
}

// RDSConfig names one RDS instance by its DB identifier.
type RDSConfig struct {
	OrderNo      int    `yaml:"order_no"`
	DBIdentifier string `yaml:"db_identifier"`
}

// CloudwatchMetricConfig describes one metric query.
type CloudwatchMetricConfig struct {
	OrderNo int `yaml:"order_no"`

	// MetricIdentifier tags the query and its fragment so several metrics
	// on the same dimension stay distinguishable. Must be unique and a
	// valid CloudWatch query id (starts with a lowercase letter).
	MetricIdentifier string `yaml:"metric_identifier"`

	MetricNamespace string `yaml:"metric_namespace"`
	MetricName      string `yaml:"metric_name"`

	// MetricStat is the statistic to query (e.g. "Average", "p99").
	MetricStat string `yaml:"metric_stat"`

	// MetricUnit optionally filters and labels the series unit.
	MetricUnit string `yaml:"metric_unit"`

	// DimensionName/DimensionValue select the series. For the AWS/EC2
	// namespace the value is an instance Name tag and is resolved to
	// instance ids before querying.
	DimensionName  string `yaml:"dimension_name"`
	DimensionValue string `yaml:"dimension_value"`
}

// CloudwatchLogInsightConfig describes one Logs Insights query.
type CloudwatchLogInsightConfig struct {
	OrderNo      int    `yaml:"order_no"`
	Description  string `yaml:"description"`
	LogGroupName string `yaml:"log_group_name"`
	Query        string `yaml:"query"`

	// ResultColumns declares the expected result fields in order; rows
	// arriving with a different field order fail the datasource.
	ResultColumns []string `yaml:"result_columns"`
}

// DatasourceCount returns the number of configured datasource entries.
func (c *Config) DatasourceCount() int {
	return len(c.AppDescriptions) +
		len(c.EC2Instances) +
		len(c.RDSInstances) +
		len(c.CloudwatchMetrics) +
		len(c.CloudwatchLogInsights)
}

// Location resolves the configured time zone, defaulting to UTC.
func (g GeneralConfig) Location() (*time.Location, error) {
	if g.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(g.TimeZone)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("unknown time_zone %q", g.TimeZone))
	}
	return loc, nil
}

// applyDefaults fills optional values so the rest of the program never
// re-checks them.
func (c *Config) applyDefaults() {
	if c.Diagnosis.Provider == "" {
		c.Diagnosis.Provider = ProviderAnthropic
	}
	if c.Diagnosis.MaxTokens == 0 {
		c.Diagnosis.MaxTokens = 2048
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "cloudsleuth"
	}
}

// Validate checks schema version, section coherence and per-entry
// required fields. Returns a *ConfigError describing the first problem.
func (c *Config) Validate() error {
	if c.SchemaVersion != SchemaVersion {
		return NewConfigError(fmt.Sprintf(
			"unsupported schema_version: %q (expected %q)", c.SchemaVersion, SchemaVersion,
		))
	}

	if c.General.Profile == "" {
		return NewConfigError("general.profile is required")
	}
	if _, err := c.General.Location(); err != nil {
		return err
	}

	switch c.Diagnosis.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return NewConfigError(fmt.Sprintf(
			"diagnosis.provider must be %q or %q, got %q",
			ProviderAnthropic, ProviderOpenAI, c.Diagnosis.Provider,
		))
	}
	if c.Diagnosis.Model == "" {
		return NewConfigError("diagnosis.model is required")
	}
	if c.Diagnosis.MaxTokens < 1 {
		return NewConfigError("diagnosis.max_tokens must be positive")
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigError("tracing.endpoint must be set when tracing is enabled")
	}

	if c.DatasourceCount() == 0 {
		return NewConfigError("at least one datasource must be configured")
	}

	for i, d := range c.AppDescriptions {
		if d.Description == "" {
			return NewConfigError(fmt.Sprintf("app_description[%d]: description is required", i))
		}
	}

	for i, d := range c.EC2Instances {
		if d.InstanceName == "" {
			return NewConfigError(fmt.Sprintf("ec2[%d]: instance_name is required", i))
		}
	}

	for i, d := range c.RDSInstances {
		if d.DBIdentifier == "" {
			return NewConfigError(fmt.Sprintf("rds[%d]: db_identifier is required", i))
		}
	}

	seenIdentifiers := make(map[string]bool)
	for i, d := range c.CloudwatchMetrics {
		switch {
		case d.MetricIdentifier == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_metric[%d]: metric_identifier is required", i))
		case d.MetricNamespace == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_metric[%d] (%s): metric_namespace is required", i, d.MetricIdentifier))
		case d.MetricName == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_metric[%d] (%s): metric_name is required", i, d.MetricIdentifier))
		case d.MetricStat == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_metric[%d] (%s): metric_stat is required", i, d.MetricIdentifier))
		case d.DimensionName == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_metric[%d] (%s): dimension_name is required", i, d.MetricIdentifier))
		case d.DimensionValue == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_metric[%d] (%s): dimension_value is required", i, d.MetricIdentifier))
		}
		if !metricIDPattern.MatchString(d.MetricIdentifier) {
			return NewConfigError(fmt.Sprintf(
				"cloudwatch_metric[%d]: metric_identifier %q must start with a lowercase letter and contain only letters, numbers and underscores",
				i, d.MetricIdentifier,
			))
		}
		if seenIdentifiers[d.MetricIdentifier] {
			return NewConfigError(fmt.Sprintf(
				"cloudwatch_metric[%d]: duplicate metric_identifier %q", i, d.MetricIdentifier,
			))
		}
		seenIdentifiers[d.MetricIdentifier] = true
	}

	for i, d := range c.CloudwatchLogInsights {
		switch {
		case d.LogGroupName == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_log_insight[%d]: log_group_name is required", i))
		case d.Query == "":
			return NewConfigError(fmt.Sprintf("cloudwatch_log_insight[%d] (%s): query is required", i, d.LogGroupName))
		case len(d.ResultColumns) == 0:
			return NewConfigError(fmt.Sprintf("cloudwatch_log_insight[%d] (%s): result_columns is required", i, d.LogGroupName))
		}
	}

	return nil
}

// ConfigError represents a configuration error, including invalid
// time-range inputs rejected before any fetch starts.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
