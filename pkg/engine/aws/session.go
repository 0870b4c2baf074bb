package aws

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Options controls how the SDK configuration is resolved.
type Options struct {
	Region  string
	Profile string
	// Anonymous skips the credential chain. Public buckets such as the
	// Software Heritage content mirror accept unsigned requests.
	Anonymous bool
	Verbose   bool
	UserAgent string
	Logger    *slog.Logger
}

// Client bundles the resolved configuration and the S3 client built from it.
type Client struct {
	Config aws.Config
	S3     *s3.Client
}

// NewClient loads the SDK configuration and injects the zorse middleware.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{
		Config: cfg,
		S3: s3.NewFromConfig(cfg, func(o *s3.Options) {
			// LocalStack and MinIO only serve path-style requests.
			o.UsePathStyle = os.Getenv("AWS_ENDPOINT_URL") != ""
		}),
	}, nil
}

// LoadConfig resolves region, profile and credentials. AWS_ENDPOINT_URL
// overrides every service endpoint.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Anonymous {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}

	ua := opts.UserAgent
	cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("ZorseUserAgent", func(ctx context.Context, input middleware.BuildInput, next middleware.BuildHandler) (
			middleware.BuildOutput, middleware.Metadata, error,
		) {
			if req, ok := input.Request.(*smithyhttp.Request); ok && ua != "" {
				current := req.Header.Get("User-Agent")
				if current == "" {
					req.Header.Set("User-Agent", ua)
				} else {
					req.Header.Set("User-Agent", current+" "+ua)
				}
			}
			return next.HandleBuild(ctx, input)
		}), middleware.After)
	})

	if opts.Verbose {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
			return stack.Initialize.Add(middleware.InitializeMiddlewareFunc("ZorseCallLogger", func(ctx context.Context, input middleware.InitializeInput, next middleware.InitializeHandler) (
				middleware.InitializeOutput, middleware.Metadata, error,
			) {
				logger.Debug("aws api call",
					"service", awsmiddleware.GetServiceID(ctx),
					"operation", middleware.GetOperationName(ctx))
				return next.HandleInitialize(ctx, input)
			}), middleware.Before)
		})
	}

	return cfg, nil
}

// StaticConfig builds a configuration with fixed credentials against endpoint.
// Used by integration tests that talk to LocalStack.
func StaticConfig(ctx context.Context, endpoint, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
	)
}
