package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/openfun/marsha-lambdas/pkg/marsha"
	"github.com/urfave/cli/v2"
)

var signatureCmd = &cli.Command{
	Name:      "signature",
	Usage:     "print the " + marsha.SignatureHeader + " value of a request body",
	ArgsUsage: "[file]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "secret",
			EnvVars: []string{"SHARED_SECRET"},
			Usage:   "secret shared with Marsha",
		},
	},
	Action: func(cCtx *cli.Context) error {
		secret := cCtx.String("secret")
		if secret == "" {
			return errors.New("missing shared secret")
		}
		var body []byte
		var err error
		if cCtx.NArg() == 0 {
			body, err = io.ReadAll(os.Stdin)
		} else {
			body, err = os.ReadFile(cCtx.Args().First())
		}
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
		fmt.Println(marsha.ComputeSignature([]byte(secret), body))
		return nil
	},
}
