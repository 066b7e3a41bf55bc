package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dukex/flowcanvas/pkg/auth"
	cli "github.com/urfave/cli/v3"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Account email",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Account password (read from stdin when omitted)",
			Sources: cli.EnvVars("FLOWCANVAS_PASSWORD"),
		},
	}
}

// password returns the --password flag or the first line of stdin.
func password(a *app, command *cli.Command, prompt string) (string, error) {
	if p := command.String("password"); p != "" {
		return p, nil
	}

	a.printf("%s: ", prompt)

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the access token",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			pass, err := password(a, command, "Password")
			if err != nil {
				return err
			}

			user, err := a.session.Login(ctx, command.String("email"), pass)
			if err != nil {
				return err
			}

			a.printf("Signed in as %s\n", user.Email)

			return nil
		},
	}
}

func registerCommand() *cli.Command {
	flags := append(credentialFlags(), &cli.StringFlag{
		Name:  "confirm-password",
		Usage: "Password confirmation (defaults to the password)",
	})

	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			pass, err := password(a, command, "Password")
			if err != nil {
				return err
			}

			confirmation := pass
			if command.IsSet("confirm-password") {
				confirmation = command.String("confirm-password")
			}

			if err := auth.CheckPasswordConfirmation(pass, confirmation); err != nil {
				return err
			}

			user, err := a.session.Register(ctx, command.String("email"), pass)
			if err != nil {
				return err
			}

			a.printf("Registered and signed in as %s\n", user.Email)

			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored access token",
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			if err := a.session.Logout(); err != nil {
				return err
			}

			a.println("Signed out")

			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed in user",
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			user, err := a.session.Restore(ctx)
			if err != nil || user == nil {
				return errNotSignedIn
			}

			a.printf("%s (%s)\n", user.Email, user.Role)

			return nil
		},
	}
}
