package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/models"
	cli "github.com/urfave/cli/v3"
)

var errWorkflowArgument = errors.New("a workflow id or name is required")

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List your workflows",
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			if _, err := a.requireUser(ctx); err != nil {
				return err
			}

			workflows := a.store.Snapshot().Workflows
			if len(workflows) == 0 {
				a.println("No workflows yet. Create one with `flowcanvas create --name <name>`.")

				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tCOMPONENTS\tCONNECTIONS\tUPDATED")

			for _, wf := range workflows {
				updated := "-"
				if wf.UpdatedAt != nil {
					updated = wf.UpdatedAt.Local().Format("2006-01-02 15:04")
				}

				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					wf.ID, wf.Name, len(wf.Components), len(wf.Connections), updated)
			}

			return w.Flush()
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an empty workflow",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Workflow name", Required: true},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Workflow description"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			if _, err := a.requireUser(ctx); err != nil {
				return err
			}

			created, err := a.store.Create(ctx, models.Workflow{
				Name:        command.String("name"),
				Description: command.String("description"),
			})
			if err != nil {
				return err
			}

			a.printf("Created workflow %q (%s)\n", created.Name, created.ID)

			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a workflow",
		ArgsUsage: "<workflow>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Delete without asking for confirmation"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			workflow, err := a.workflowArg(ctx, command)
			if err != nil {
				return err
			}

			if !command.Bool("yes") && !a.confirm(fmt.Sprintf("Delete workflow %q?", workflow.Name)) {
				a.println("Cancelled")

				return nil
			}

			if err := a.store.Delete(ctx, workflow.ID); err != nil {
				return err
			}

			a.printf("Deleted workflow %q\n", workflow.Name)

			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a stored workflow",
		ArgsUsage: "<workflow>",
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			workflow, err := a.workflowArg(ctx, command)
			if err != nil {
				return err
			}

			result, err := a.store.Validate(ctx, workflow.Graph())
			printValidation(a, result)

			return err
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a workflow to a JSON file",
		ArgsUsage: "<workflow>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Directory to write the export to", Value: "."},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			if _, err := a.workflowArg(ctx, command); err != nil {
				return err
			}

			session := editor.New(a.store, a.registry, a.logger)
			defer session.Close()

			path, err := writeExport(session, command.String("dir"))
			if err != nil {
				return err
			}

			a.printf("Exported to %s\n", path)

			return nil
		},
	}
}

// workflowArg signs in, loads the list and selects the workflow named by the first argument.
func (a *app) workflowArg(ctx context.Context, command *cli.Command) (*models.Workflow, error) {
	ref := command.Args().First()
	if ref == "" {
		return nil, errWorkflowArgument
	}

	if _, err := a.requireUser(ctx); err != nil {
		return nil, err
	}

	return a.selectWorkflow(ref)
}

func writeExport(session *editor.Session, dir string) (string, error) {
	name, data, err := session.Export()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, filepath.Base(name))

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	return path, nil
}

func printValidation(a *app, result models.ValidationResult) {
	if result.Valid {
		a.println("Workflow is valid")
	} else {
		a.println("Workflow is invalid")
	}

	for _, e := range result.HardErrors() {
		a.printf("  ✗ %s\n", e)
	}

	for _, w := range result.Warnings() {
		a.printf("  %s\n", w)
	}
}
