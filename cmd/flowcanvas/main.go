// Package main provides the flowcanvas command line client and interactive workflow editor.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/flowcanvas/pkg/auth"
	"github.com/dukex/flowcanvas/pkg/client"
	cli "github.com/urfave/cli/v3"
)

func main() {
	err := newCommand().Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "flowcanvas",
		Usage:                 "Build, validate and manage workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the workflow service",
				Value:   client.DefaultBaseURL,
				Sources: cli.EnvVars("FLOWCANVAS_API_URL"),
			},
			&cli.StringFlag{
				Name:    "token-file",
				Usage:   "File holding the access token",
				Value:   auth.DefaultTokenPath(),
				Sources: cli.EnvVars("FLOWCANVAS_TOKEN_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			logoutCommand(),
			whoamiCommand(),
			listCommand(),
			createCommand(),
			deleteCommand(),
			validateCommand(),
			exportCommand(),
			editCommand(),
		},
	}
}
