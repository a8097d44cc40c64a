package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/openfun/marsha-lambdas/pkg/service/presetsync"
)

// NewMediaConvertClient returns a client bound to the account specific
// MediaConvert endpoint.
func NewMediaConvertClient(ctx context.Context, cfg aws.Config) (*mediaconvert.Client, error) {
	endpoint, err := presetsync.ResolveEndpoint(ctx, mediaconvert.NewFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("resolving mediaconvert endpoint: %w", err)
	}
	return mediaconvert.NewFromConfig(cfg, func(o *mediaconvert.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}
