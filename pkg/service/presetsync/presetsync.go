// Package presetsync keeps the MediaConvert presets of an environment in sync
// with the definitions shipped in the binary.
package presetsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert/types"
	logging "github.com/ipfs/go-log/v2"
	"github.com/openfun/marsha-lambdas/pkg/presets"
)

var log = logging.Logger("presets")

// ErrNoEndpoint is returned when MediaConvert does not describe any endpoint
// for the account.
var ErrNoEndpoint = errors.New("no mediaconvert endpoint")

// API is the part of the MediaConvert client used to manage presets.
type API interface {
	GetPreset(ctx context.Context, params *mediaconvert.GetPresetInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.GetPresetOutput, error)
	CreatePreset(ctx context.Context, params *mediaconvert.CreatePresetInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.CreatePresetOutput, error)
	UpdatePreset(ctx context.Context, params *mediaconvert.UpdatePresetInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.UpdatePresetOutput, error)
}

// EndpointDescriber is the part of the MediaConvert client that lists the
// account endpoints.
type EndpointDescriber interface {
	DescribeEndpoints(ctx context.Context, params *mediaconvert.DescribeEndpointsInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.DescribeEndpointsOutput, error)
}

// ResolveEndpoint returns the account specific MediaConvert endpoint.
func ResolveEndpoint(ctx context.Context, api EndpointDescriber) (string, error) {
	out, err := api.DescribeEndpoints(ctx, &mediaconvert.DescribeEndpointsInput{
		Mode:       types.DescribeEndpointsModeDefault,
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("describing mediaconvert endpoints: %w", err)
	}
	if len(out.Endpoints) == 0 || aws.ToString(out.Endpoints[0].Url) == "" {
		return "", ErrNoEndpoint
	}
	return aws.ToString(out.Endpoints[0].Url), nil
}

// Result lists the qualified names of the presets a sync touched.
type Result struct {
	Created []string
	Updated []string
}

type Syncer struct {
	api     API
	env     string
	presets []presets.Preset
}

type Option func(*Syncer)

// WithPresets replaces the embedded preset definitions.
func WithPresets(p ...presets.Preset) Option {
	return func(s *Syncer) {
		s.presets = p
	}
}

// NewSyncer returns a syncer managing the presets of the env environment.
func NewSyncer(api API, env string, opts ...Option) (*Syncer, error) {
	s := &Syncer{api: api, env: env}
	for _, opt := range opts {
		opt(s)
	}
	if s.presets == nil {
		all, err := presets.All()
		if err != nil {
			return nil, fmt.Errorf("loading presets: %w", err)
		}
		s.presets = all
	}
	return s, nil
}

// Sync creates the presets missing from MediaConvert and updates the others.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var res Result
	for _, p := range s.presets {
		name := p.QualifiedName(s.env)
		var settings types.PresetSettings
		if err := json.Unmarshal(p.Settings, &settings); err != nil {
			return res, fmt.Errorf("decoding settings of %s: %w", name, err)
		}

		exists, err := s.exists(ctx, name)
		if err != nil {
			return res, err
		}
		if exists {
			_, err = s.api.UpdatePreset(ctx, &mediaconvert.UpdatePresetInput{
				Name:        aws.String(name),
				Category:    aws.String(p.Category),
				Description: aws.String(p.Description),
				Settings:    &settings,
			})
			if err != nil {
				return res, fmt.Errorf("updating preset %s: %w", name, err)
			}
			log.Infow("preset updated", "name", name)
			res.Updated = append(res.Updated, name)
			continue
		}

		_, err = s.api.CreatePreset(ctx, &mediaconvert.CreatePresetInput{
			Name:        aws.String(name),
			Category:    aws.String(p.Category),
			Description: aws.String(p.Description),
			Settings:    &settings,
		})
		if err != nil {
			return res, fmt.Errorf("creating preset %s: %w", name, err)
		}
		log.Infow("preset created", "name", name)
		res.Created = append(res.Created, name)
	}
	return res, nil
}

func (s *Syncer) exists(ctx context.Context, name string) (bool, error) {
	_, err := s.api.GetPreset(ctx, &mediaconvert.GetPresetInput{Name: aws.String(name)})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("getting preset %s: %w", name, err)
}
