package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/service/timedtextconv"
	"github.com/openfun/marsha-lambdas/pkg/timedtext"
	"github.com/urfave/cli/v2"
)

var timedTextCmd = &cli.Command{
	Name:  "timedtext",
	Usage: "inspect and convert timed text tracks",
	Subcommands: []*cli.Command{
		{
			Name:      "detect",
			Usage:     "print the format of a local timed text file",
			ArgsUsage: "<file>",
			Action: func(cCtx *cli.Context) error {
				content, err := readArg(cCtx)
				if err != nil {
					return err
				}
				format, ok := timedtext.Detect(content)
				if !ok {
					return timedtext.ErrUnknownFormat
				}
				fmt.Println(format)
				return nil
			},
		},
		{
			Name:      "vtt",
			Usage:     "print the WebVTT rendition of a local timed text file",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "mode",
					Value: string(timedtext.ModeSubtitle),
					Usage: "track mode ['st' | 'ts' | 'cc'], transcripts are not escaped",
				},
			},
			Action: func(cCtx *cli.Context) error {
				content, err := readArg(cCtx)
				if err != nil {
					return err
				}
				_, captions, err := timedtext.Parse(content)
				if err != nil {
					return err
				}
				mode := timedtext.Mode(cCtx.String("mode"))
				fmt.Print(timedtext.BuildVTT(captions, timedtext.Options{Escape: mode.Escape()}))
				return nil
			},
		},
		{
			Name:      "convert",
			Usage:     "convert an uploaded track the way the encode lambda does",
			ArgsUsage: "<key>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "source-bucket",
					EnvVars:  []string{"S3_SOURCE_BUCKET"},
					Required: true,
				},
				&cli.StringFlag{
					Name:     "destination-bucket",
					EnvVars:  []string{"S3_DESTINATION_BUCKET"},
					Required: true,
				},
				&cli.StringFlag{
					Name:    "conversion-table",
					EnvVars: []string{"CONVERSION_TABLE_NAME"},
					Usage:   "dynamodb table recording conversions",
				},
			},
			Action: func(cCtx *cli.Context) error {
				key := cCtx.Args().First()
				if key == "" {
					return errors.New("missing key")
				}
				cfg := aws.FromEnv(cCtx.Context)
				s3Client := aws.NewS3Client(cfg.Config)
				var opts []timedtextconv.Option
				if table := cCtx.String("conversion-table"); table != "" {
					opts = append(opts, timedtextconv.WithRecorder(aws.NewDynamoConversionTable(cfg.Config, table)))
				}
				conv := timedtextconv.NewConverter(
					aws.NewS3BucketOpener(s3Client),
					aws.NewS3StoreWithClient(s3Client, cCtx.String("destination-bucket"), ""),
					opts...,
				)
				format, err := conv.Convert(cCtx.Context, cCtx.String("source-bucket"), key)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s -> %s\n", format, key, timedtext.DestinationKey(key))
				return nil
			},
		},
		{
			Name:      "conversion",
			Usage:     "print the last recorded conversion of an uploaded track",
			ArgsUsage: "<key>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "conversion-table",
					EnvVars:  []string{"CONVERSION_TABLE_NAME"},
					Required: true,
				},
			},
			Action: func(cCtx *cli.Context) error {
				cfg := aws.FromEnv(cCtx.Context)
				conversion, err := aws.NewDynamoConversionTable(cfg.Config, cCtx.String("conversion-table")).Get(cCtx.Context, cCtx.Args().First())
				if err != nil {
					return err
				}
				fmt.Printf("format:      %s\n", conversion.Format)
				fmt.Printf("mode:        %s\n", conversion.Mode)
				fmt.Printf("webvtt:      %s\n", conversion.DestinationKey)
				fmt.Printf("source:      %s\n", conversion.SourceKey)
				fmt.Printf("converted:   %s\n", conversion.ConvertedAt)
				return nil
			},
		},
	},
}

func readArg(cCtx *cli.Context) (string, error) {
	if cCtx.NArg() != 1 {
		return "", errors.New("expected exactly one file")
	}
	data, err := os.ReadFile(cCtx.Args().First())
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}
