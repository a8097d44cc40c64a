package presetsync_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert/types"
	"github.com/openfun/marsha-lambdas/pkg/presets"
	"github.com/openfun/marsha-lambdas/pkg/service/presetsync"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	existing map[string]*types.PresetSettings
	created  []string
	updated  []string
	getErr   error
}

func (f *fakeAPI) GetPreset(ctx context.Context, params *mediaconvert.GetPresetInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.GetPresetOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	settings, ok := f.existing[aws.ToString(params.Name)]
	if !ok {
		return nil, &types.NotFoundException{Message: aws.String("preset not found")}
	}
	return &mediaconvert.GetPresetOutput{Preset: &types.Preset{Name: params.Name, Settings: settings}}, nil
}

func (f *fakeAPI) CreatePreset(ctx context.Context, params *mediaconvert.CreatePresetInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.CreatePresetOutput, error) {
	f.created = append(f.created, aws.ToString(params.Name))
	f.existing[aws.ToString(params.Name)] = params.Settings
	return &mediaconvert.CreatePresetOutput{}, nil
}

func (f *fakeAPI) UpdatePreset(ctx context.Context, params *mediaconvert.UpdatePresetInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.UpdatePresetOutput, error) {
	f.updated = append(f.updated, aws.ToString(params.Name))
	f.existing[aws.ToString(params.Name)] = params.Settings
	return &mediaconvert.UpdatePresetOutput{}, nil
}

var testPresets = []presets.Preset{
	{Name: "mp4_h264_240", Description: "mp4", Category: "marsha", Settings: json.RawMessage(`{"ContainerSettings": {"Container": "MP4"}, "VideoDescription": {"Height": 240}}`)},
	{Name: "thumbnail_jpg_1080", Description: "thumbs", Category: "marsha", Settings: json.RawMessage(`{"ContainerSettings": {"Container": "RAW"}}`)},
}

func TestSync(t *testing.T) {
	t.Run("creates missing and updates existing presets", func(t *testing.T) {
		api := &fakeAPI{existing: map[string]*types.PresetSettings{"staging_thumbnail_jpg_1080": {}}}
		syncer, err := presetsync.NewSyncer(api, "staging", presetsync.WithPresets(testPresets...))
		require.NoError(t, err)

		res, err := syncer.Sync(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"staging_mp4_h264_240"}, res.Created)
		require.Equal(t, []string{"staging_thumbnail_jpg_1080"}, res.Updated)

		settings := api.existing["staging_mp4_h264_240"]
		require.Equal(t, types.ContainerTypeMp4, settings.ContainerSettings.Container)
		require.Equal(t, int32(240), aws.ToInt32(settings.VideoDescription.Height))

		// a second run only updates
		res, err = syncer.Sync(t.Context())
		require.NoError(t, err)
		require.Empty(t, res.Created)
		require.Len(t, res.Updated, 2)
	})

	t.Run("embedded presets", func(t *testing.T) {
		api := &fakeAPI{existing: map[string]*types.PresetSettings{}}
		syncer, err := presetsync.NewSyncer(api, "production")
		require.NoError(t, err)
		res, err := syncer.Sync(t.Context())
		require.NoError(t, err)
		all, err := presets.All()
		require.NoError(t, err)
		require.Len(t, res.Created, len(all))
		require.Contains(t, res.Created, "production_cmaf_video_h264_720")
	})

	t.Run("get failure stops the sync", func(t *testing.T) {
		api := &fakeAPI{existing: map[string]*types.PresetSettings{}, getErr: errors.New("access denied")}
		syncer, err := presetsync.NewSyncer(api, "staging", presetsync.WithPresets(testPresets...))
		require.NoError(t, err)
		_, err = syncer.Sync(t.Context())
		require.ErrorContains(t, err, "access denied")
		require.Empty(t, api.created)
		require.Empty(t, api.updated)
	})
}

type fakeDescriber struct {
	out *mediaconvert.DescribeEndpointsOutput
	in  *mediaconvert.DescribeEndpointsInput
}

func (f *fakeDescriber) DescribeEndpoints(ctx context.Context, params *mediaconvert.DescribeEndpointsInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.DescribeEndpointsOutput, error) {
	f.in = params
	return f.out, nil
}

func TestResolveEndpoint(t *testing.T) {
	describer := &fakeDescriber{out: &mediaconvert.DescribeEndpointsOutput{
		Endpoints: []types.Endpoint{{Url: aws.String("https://abcd1234.mediaconvert.eu-west-1.amazonaws.com")}},
	}}
	endpoint, err := presetsync.ResolveEndpoint(t.Context(), describer)
	require.NoError(t, err)
	require.Equal(t, "https://abcd1234.mediaconvert.eu-west-1.amazonaws.com", endpoint)
	require.Equal(t, types.DescribeEndpointsModeDefault, describer.in.Mode)

	_, err = presetsync.ResolveEndpoint(t.Context(), &fakeDescriber{out: &mediaconvert.DescribeEndpointsOutput{}})
	require.ErrorIs(t, err, presetsync.ErrNoEndpoint)
}
