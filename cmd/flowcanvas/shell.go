package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/schema"
	cli "github.com/urfave/cli/v3"
)

var errUsage = errors.New("usage")

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a workflow graph interactively",
		ArgsUsage: "<workflow>",
		Action: func(ctx context.Context, command *cli.Command) error {
			a := newApp(ctx, command)

			if _, err := a.workflowArg(ctx, command); err != nil {
				return err
			}

			session := editor.New(a.store, a.registry, a.logger)
			defer session.Close()

			return newShell(a, session).run(ctx)
		},
	}
}

type shellCommand struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// shell reads editor commands line by line and applies them to the session.
type shell struct {
	app      *app
	session  *editor.Session
	input    *bufio.Scanner
	commands map[string]shellCommand
	quitting bool
}

func newShell(a *app, session *editor.Session) *shell {
	s := &shell{app: a, session: session, input: bufio.NewScanner(a.in)}

	s.commands = map[string]shellCommand{
		"help":       {usage: "help", help: "Show this help", run: s.help},
		"show":       {usage: "show", help: "Show nodes and connections", run: s.show},
		"palette":    {usage: "palette", help: "List the component kinds", run: s.palette},
		"add":        {usage: "add <kind>", help: "Add a component", run: s.add},
		"rm":         {usage: "rm <node>", help: "Remove a component and its connections", run: s.remove},
		"mv":         {usage: "mv <node> <x> <y>", help: "Move a component", run: s.move},
		"connect":    {usage: "connect <source> <right|bottom> <target> <left|top>", help: "Connect two components", run: s.connect},
		"disconnect": {usage: "disconnect <edge>", help: "Remove a connection", run: s.disconnect},
		"fields":     {usage: "fields <node>", help: "Show the configuration fields of a component", run: s.fields},
		"set":        {usage: "set <node> <field>=<value>...", help: "Configure a component", run: s.set},
		"rename":     {usage: "rename <node> <label>", help: "Rename a component", run: s.rename},
		"raw":        {usage: "raw <node> <json>", help: "Replace the JSON configuration of a custom component", run: s.raw},
		"validate":   {usage: "validate", help: "Validate the current graph", run: s.validate},
		"save":       {usage: "save", help: "Save the graph", run: s.save},
		"export":     {usage: "export [dir]", help: "Write the graph to a JSON file", run: s.export},
		"clear":      {usage: "clear", help: "Remove every component (asks for confirmation)", run: s.clear},
		"quit":       {usage: "quit", help: "Leave the editor", run: s.quit},
	}

	return s
}

func (s *shell) run(ctx context.Context) error {
	w := s.session.Workflow()
	if w == nil {
		return editor.ErrNoWorkflow
	}

	s.app.printf("Editing %q. Type `help` for commands.\n", w.Name)

	for !s.quitting {
		s.app.printf("%s> ", w.Name)

		line, ok := s.readLine()
		if !ok {
			break
		}

		if err := s.exec(ctx, line); err != nil {
			s.report(err)
		}
	}

	return nil
}

func (s *shell) readLine() (string, bool) {
	if !s.input.Scan() {
		return "", false
	}

	return strings.TrimSpace(s.input.Text()), true
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := fields[0]
	if name == "exit" {
		name = "quit"
	}

	command, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, type `help`", fields[0])
	}

	err := command.run(ctx, fields[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: %s", command.usage)
	}

	return err
}

func (s *shell) report(err error) {
	var fieldErrors schema.FieldErrors
	if errors.As(err, &fieldErrors) {
		for _, field := range slices.Sorted(maps.Keys(fieldErrors)) {
			s.app.printf("  ✗ %s\n", fieldErrors[field])
		}

		return
	}

	s.app.printf("Error: %v\n", err)
}

func (s *shell) help(context.Context, []string) error {
	w := tabwriter.NewWriter(s.app.out, 0, 0, 2, ' ', 0)

	for _, name := range slices.Sorted(maps.Keys(s.commands)) {
		c := s.commands[name]
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", c.usage, c.help)
	}

	return w.Flush()
}

func (s *shell) show(context.Context, []string) error {
	nodes := s.session.Nodes()
	edges := s.session.Edges()

	if len(nodes) == 0 {
		s.app.println("The graph is empty. Add a component with `add <kind>`.")

		return nil
	}

	w := tabwriter.NewWriter(s.app.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NODE\tKIND\tLABEL\tPOSITION")

	for _, n := range nodes {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.0f,%.0f\n", n.ID, n.Data.Type, n.Data.Label, n.Position.X, n.Position.Y)
	}

	if len(edges) > 0 {
		_, _ = fmt.Fprintln(w, "\nEDGE\tFROM\tTO\t")

		for _, e := range edges {
			_, _ = fmt.Fprintf(w, "%s\t%s.%s\t%s.%s\t\n", e.ID, e.Source, e.SourceHandle, e.Target, e.TargetHandle)
		}
	}

	if s.session.Dirty() {
		_, _ = fmt.Fprintln(w, "\n(unsaved changes)")
	}

	return w.Flush()
}

func (s *shell) palette(context.Context, []string) error {
	for _, kind := range s.app.registry.Kinds() {
		s.app.printf("  %-10s %s\n", kind, s.app.registry.Label(kind))
	}

	return nil
}

func (s *shell) add(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	node, err := s.session.AddNode(models.ComponentKind(args[0]))
	if err != nil {
		return err
	}

	s.app.printf("Added %s %q\n", node.ID, node.Data.Label)

	return nil
}

func (s *shell) remove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	return s.session.RemoveNode(args[0])
}

func (s *shell) move(_ context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}

	x, errX := strconv.ParseFloat(args[1], 64)
	y, errY := strconv.ParseFloat(args[2], 64)

	if errX != nil || errY != nil {
		return errUsage
	}

	return s.session.MoveNode(args[0], models.Position{X: x, Y: y})
}

func (s *shell) connect(_ context.Context, args []string) error {
	if len(args) != 4 {
		return errUsage
	}

	edge, err := s.session.Connect(args[0], args[1], args[2], args[3])
	if err != nil {
		return err
	}

	s.app.printf("Connected %s\n", edge.ID)

	return nil
}

func (s *shell) disconnect(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	return s.session.Disconnect(args[0])
}

func (s *shell) fields(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	node, ok := s.session.Node(args[0])
	if !ok {
		return &editor.NodeError{Op: "fields", NodeID: args[0], Err: editor.ErrNodeNotFound}
	}

	cfg, err := s.session.ConfigOf(node.ID)
	if err != nil {
		return err
	}

	if raw, isRaw := cfg.(schema.RawConfig); isRaw {
		s.app.printf("  %s (edit with `raw %s <json>`)\n", schema.FormatRaw(raw), node.ID)

		return nil
	}

	values := schema.Encode(cfg)
	w := tabwriter.NewWriter(s.app.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tLABEL\tVALUE\tOPTIONS")

	for _, f := range s.app.registry.Fields(node.Data.Type, cfg) {
		label := f.Label
		if f.Required {
			label += " *"
		}

		options := make([]string, 0, len(f.Options))
		for _, o := range f.Options {
			options = append(options, o.Value)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", f.Name, label, valueOr(values[f.Name], "-"), strings.Join(options, "|"))
	}

	return w.Flush()
}

func valueOr(v any, fallback string) any {
	if v == nil || v == "" {
		return fallback
	}

	return v
}

// set merges field=value assignments into the node's configuration and applies it.
func (s *shell) set(_ context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}

	node, ok := s.session.Node(args[0])
	if !ok {
		return &editor.NodeError{Op: "set", NodeID: args[0], Err: editor.ErrNodeNotFound}
	}

	cfg, err := s.session.ConfigOf(node.ID)
	if err != nil {
		return err
	}

	values := schema.Encode(cfg)

	for _, assignment := range args[1:] {
		key, value, found := strings.Cut(assignment, "=")
		if !found || key == "" {
			return errUsage
		}

		values[key] = value
	}

	next, err := s.app.registry.Decode(node.Data.Type, values)
	if err != nil {
		return err
	}

	if err := s.session.Configure(node.ID, node.Data.Label, next); err != nil {
		return err
	}

	s.app.printf("Configured %s\n", node.ID)

	return nil
}

func (s *shell) rename(_ context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}

	return s.session.Rename(args[0], strings.Join(args[1:], " "))
}

func (s *shell) raw(_ context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}

	applied, err := s.session.EditRawConfig(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	if !applied {
		s.app.println("Not a JSON object, configuration unchanged")
	}

	return nil
}

func (s *shell) validate(ctx context.Context, _ []string) error {
	result, err := s.session.ValidateCurrent(ctx)
	printValidation(s.app, result)

	return err
}

func (s *shell) save(ctx context.Context, _ []string) error {
	if err := s.session.Save(ctx); err != nil {
		return err
	}

	s.app.println("Saved")

	return nil
}

func (s *shell) export(_ context.Context, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	path, err := writeExport(s.session, dir)
	if err != nil {
		return err
	}

	s.app.printf("Exported to %s\n", path)

	return nil
}

func (s *shell) clear(context.Context, []string) error {
	if !s.confirm("Remove every component and connection?") {
		s.app.println("Cancelled")

		return nil
	}

	s.session.Clear()
	s.app.println("Cleared (not saved yet)")

	return nil
}

func (s *shell) quit(context.Context, []string) error {
	if s.session.Dirty() && !s.confirm("There are unsaved changes. Quit anyway?") {
		return nil
	}

	s.quitting = true

	return nil
}

func (s *shell) confirm(question string) bool {
	s.app.printf("%s [y/N] ", question)

	answer, ok := s.readLine()
	if !ok {
		return false
	}

	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
