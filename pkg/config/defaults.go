// Package config defines the zorse configuration tree and its defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/zorse-project/zorse/pkg/engine/filter"
	"github.com/zorse-project/zorse/pkg/engine/tokenizer"
	"github.com/zorse-project/zorse/pkg/hub"
	"github.com/zorse-project/zorse/pkg/language"
	"github.com/zorse-project/zorse/pkg/sources/bigquery"
	"github.com/zorse-project/zorse/pkg/sources/stack"
)

// EnvPrefix namespaces environment overrides, e.g. ZORSE_HUB_KIND.
const EnvPrefix = "ZORSE"

// Hub backends.
const (
	HubHuggingFace = "huggingface"
	HubS3          = "s3"
	HubLocal       = "local"
)

type Config struct {
	Filter    filter.Limits   `mapstructure:"filter"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	BigQuery  BigQueryConfig  `mapstructure:"bigquery"`
	Stack     StackConfig     `mapstructure:"stack"`
	Hub       HubConfig       `mapstructure:"hub"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type TokenizerConfig struct {
	Encoding string `mapstructure:"encoding"`
}

type BigQueryConfig struct {
	Project         string `mapstructure:"project"`
	MaxContentBytes int    `mapstructure:"max_content_bytes"`
}

type StackConfig struct {
	Dataset      string   `mapstructure:"dataset"`
	Split        string   `mapstructure:"split"`
	RowsEndpoint string   `mapstructure:"rows_endpoint"`
	PageSize     int      `mapstructure:"page_size"`
	BlobBucket   string   `mapstructure:"blob_bucket"`
	BlobPrefix   string   `mapstructure:"blob_prefix"`
	Languages    []string `mapstructure:"languages"`
}

type HubConfig struct {
	Kind      string `mapstructure:"kind"`
	Token     string `mapstructure:"token"`
	Namespace string `mapstructure:"namespace"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Root      string `mapstructure:"root"`
	Private   bool   `mapstructure:"private"`
}

type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`

	// Anonymous sends unsigned requests, which public buckets accept.
	Anonymous bool `mapstructure:"anonymous"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Disabled bool   `mapstructure:"disabled"`
}

// Defaults.
const (
	DefaultRegion = "us-east-1"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	limits := filter.DefaultLimits()
	v.SetDefault("filter.min_lines", limits.MinLines)
	v.SetDefault("filter.max_lines", limits.MaxLines)
	v.SetDefault("filter.max_tokens", limits.MaxTokens)

	v.SetDefault("tokenizer.encoding", tokenizer.DefaultEncoding)

	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.max_content_bytes", bigquery.DefaultMaxContentBytes)

	v.SetDefault("stack.dataset", stack.DefaultDataset)
	v.SetDefault("stack.split", stack.DefaultSplit)
	v.SetDefault("stack.rows_endpoint", stack.DefaultEndpoint)
	v.SetDefault("stack.page_size", stack.DefaultPageSize)
	v.SetDefault("stack.blob_bucket", stack.DefaultBucket)
	v.SetDefault("stack.blob_prefix", stack.DefaultPrefix)
	v.SetDefault("stack.languages", language.DefaultStackLanguages)

	v.SetDefault("hub.kind", HubHuggingFace)
	v.SetDefault("hub.token", "")
	v.SetDefault("hub.namespace", "zorse")
	v.SetDefault("hub.endpoint", hub.DefaultEndpoint)
	v.SetDefault("hub.bucket", "")
	v.SetDefault("hub.prefix", "")
	v.SetDefault("hub.root", ".zorse/hub")
	v.SetDefault("hub.private", true)

	v.SetDefault("aws.region", DefaultRegion)
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.anonymous", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.disabled", false)
}

// bindings maps well-known environment variables onto config keys. The
// ZORSE_ prefixed form of every key works as well.
var bindings = map[string][]string{
	"hub.token":          {"ZORSE_HUB_TOKEN", "HF_TOKEN"},
	"bigquery.project":   {"ZORSE_BIGQUERY_PROJECT", "GOOGLE_CLOUD_PROJECT"},
	"aws.region":         {"ZORSE_AWS_REGION", "AWS_REGION"},
	"aws.profile":        {"ZORSE_AWS_PROFILE", "AWS_PROFILE"},
	"telemetry.endpoint": {"ZORSE_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// BindEnv wires environment lookups into v.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch {
	case c.Filter.MinLines <= 0:
		return fmt.Errorf("filter.min_lines must be positive, got %d", c.Filter.MinLines)
	case c.Filter.MaxLines <= 0:
		return fmt.Errorf("filter.max_lines must be positive, got %d", c.Filter.MaxLines)
	case c.Filter.MaxTokens <= 0:
		return fmt.Errorf("filter.max_tokens must be positive, got %d", c.Filter.MaxTokens)
	}
	if c.Filter.MinLines > c.Filter.MaxLines {
		return fmt.Errorf("filter.min_lines (%d) exceeds filter.max_lines (%d)", c.Filter.MinLines, c.Filter.MaxLines)
	}
	switch c.Hub.Kind {
	case HubHuggingFace, HubLocal:
	case HubS3:
		if c.Hub.Bucket == "" {
			return fmt.Errorf("hub.bucket is required when hub.kind is %q", HubS3)
		}
	default:
		return fmt.Errorf("unknown hub.kind %q", c.Hub.Kind)
	}
	return nil
}
