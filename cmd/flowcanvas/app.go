package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dukex/flowcanvas/pkg/auth"
	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/cmd"
	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/schema"
	"github.com/dukex/flowcanvas/pkg/store"
	cli "github.com/urfave/cli/v3"
)

var (
	errNotSignedIn      = errors.New("not signed in, run `flowcanvas login` first")
	errWorkflowNotFound = errors.New("workflow not found")
)

// app wires the client, identity session and workflow store for one invocation.
type app struct {
	logger   *slog.Logger
	client   *client.Client
	tokens   *auth.FileTokenStore
	session  *auth.Session
	store    *store.Store
	registry *schema.Registry
	out      io.Writer
	in       io.Reader
}

func newApp(ctx context.Context, command *cli.Command) *app {
	root := command.Root()

	log.Setup(root.String("log-level"))
	logger := log.WithModule("cli")

	tokens := auth.NewFileTokenStore(root.String("token-file"))
	c := client.New(root.String("api-url"), client.WithTokenSource(tokens), client.WithLogger(logger))

	a := &app{
		logger:   logger,
		client:   c,
		tokens:   tokens,
		session:  auth.NewSession(c, tokens, logger),
		store:    store.New(c, logger),
		registry: cmd.NewRegistry(ctx, logger),
		out:      root.Writer,
		in:       root.Reader,
	}

	a.session.OnIdentityChange(func(_ auth.Event, user *models.User) {
		a.store.IdentityChanged(user)
	})

	return a
}

// requireUser restores the saved identity and loads the user's workflows.
func (a *app) requireUser(ctx context.Context) (*models.User, error) {
	user, err := a.session.Restore(ctx)
	if err != nil {
		if client.IsUnauthorized(err) || errors.Is(err, auth.ErrInvalidToken) {
			return nil, errNotSignedIn
		}

		return nil, err
	}

	if user == nil {
		return nil, errNotSignedIn
	}

	a.store.LoadAll(ctx)

	if msg := a.store.Snapshot().ErrMessage(); msg != "" {
		return nil, fmt.Errorf("failed to load workflows: %s", msg)
	}

	return user, nil
}

// selectWorkflow makes the workflow with id (or an unambiguous name) current.
func (a *app) selectWorkflow(ref string) (*models.Workflow, error) {
	workflows := a.store.Snapshot().Workflows

	var match *models.Workflow

	for i := range workflows {
		if workflows[i].ID == ref {
			match = &workflows[i]

			break
		}

		if workflows[i].Name == ref && match == nil {
			match = &workflows[i]
		}
	}

	if match == nil {
		return nil, fmt.Errorf("%w: %s", errWorkflowNotFound, ref)
	}

	a.store.SetCurrent(match)

	return a.store.Current(), nil
}

// confirm asks a yes/no question on the command input. Anything but y or yes declines.
func (a *app) confirm(question string) bool {
	a.printf("%s [y/N] ", question)

	answer, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	answer = strings.TrimSpace(answer)

	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}
