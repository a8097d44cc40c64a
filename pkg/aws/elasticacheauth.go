package aws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// ElastiCache IAM authentication, see
// https://docs.aws.amazon.com/AmazonElastiCache/latest/dg/auth-iam.html

const (
	elastiCacheService = "elasticache"
	// tokens are valid for 15 minutes
	elastiCacheTokenExpiry = 899
	// hex encoded SHA-256 of an empty body
	emptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// elastiCacheToken presigns a connect request for userID on the cache and
// returns it without its scheme, which is the form ElastiCache expects as a
// password.
func elastiCacheToken(ctx context.Context, creds aws.Credentials, region, userID, cacheName string, now time.Time) (string, error) {
	query := url.Values{
		"Action":        {"connect"},
		"User":          {userID},
		"X-Amz-Expires": {strconv.Itoa(elastiCacheTokenExpiry)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, (&url.URL{
		Scheme:   "http",
		Host:     cacheName,
		Path:     "/",
		RawQuery: query.Encode(),
	}).String(), nil)
	if err != nil {
		return "", err
	}

	signed, _, err := v4.NewSigner().PresignHTTP(ctx, creds, req, emptyBodySHA256, elastiCacheService, region, now)
	if err != nil {
		return "", fmt.Errorf("presigning connect request: %w", err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		return "", err
	}
	return u.Host + "/?" + u.RawQuery, nil
}

func elastiCacheCredentials(cfg aws.Config, userID string, cacheName string) func(context.Context) (string, string, error) {
	return func(ctx context.Context) (string, string, error) {
		creds, err := cfg.Credentials.Retrieve(ctx)
		if err != nil {
			return "", "", fmt.Errorf("getting aws credentials: %w", err)
		}
		token, err := elastiCacheToken(ctx, creds, cfg.Region, userID, cacheName, time.Now())
		if err != nil {
			return "", "", fmt.Errorf("obtaining signed redis login: %w", err)
		}
		return userID, token, nil
	}
}
