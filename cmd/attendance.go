package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openfun/marsha-lambdas/pkg/attendance"
	"github.com/urfave/cli/v2"
)

var attendanceCmd = &cli.Command{
	Name:      "attendance",
	Usage:     "compute the attendance of a viewer from unix timestamps",
	ArgsUsage: "<ping...>",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:     "start",
			Usage:    "session start, unix seconds",
			Required: true,
		},
		&cli.Int64Flag{
			Name:     "end",
			Usage:    "session end, unix seconds",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "segments",
			Value: 12,
			Usage: "number of slices the session is split into",
		},
	},
	Action: func(cCtx *cli.Context) error {
		var pings []int64
		for _, arg := range cCtx.Args().Slice() {
			p, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("parsing ping %q: %w", arg, err)
			}
			pings = append(pings, p)
		}
		res, err := attendance.ComputeFromUnix(cCtx.Int64("start"), cCtx.Int64("end"), cCtx.Int("segments"), pings)
		if err != nil {
			return err
		}
		var bar strings.Builder
		for _, present := range res.Segments {
			if present {
				bar.WriteByte('#')
			} else {
				bar.WriteByte('.')
			}
		}
		fmt.Printf("%s %d/%d %d%%\n", bar.String(), res.Present, len(res.Segments), res.Percent)
		return nil
	},
}
