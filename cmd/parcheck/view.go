package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/stepantubanov/parcheck"
)

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Pretty-print a recorded schedule",
		ArgsUsage: "[trace]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "trace",
				Sources: cli.EnvVars("PARCHECK_REPLAY"),
				Usage:   "Recorded schedule; '-' reads stdin",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			raw := cmd.String("trace")
			if cmd.Args().Len() > 0 {
				raw = cmd.Args().First()
			}
			if raw == "" {
				return fmt.Errorf("no trace given: pass an argument, --trace, or set PARCHECK_REPLAY")
			}
			if raw == "-" {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				raw = strings.TrimRight(string(b), "\n")
			}

			trace, err := parcheck.ParseTrace(raw)
			if err != nil {
				return err
			}
			return renderTrace(os.Stdout, trace)
		},
	}
}

// renderTrace prints the schedule step by step, then the per-task
// operation sequences.
func renderTrace(w io.Writer, trace *parcheck.Trace) error {
	entries := trace.Entries()

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tTASK\tOPERATION")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%d:%s\t%s\n", i, e.TaskID, e.TaskName, e.Operation)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	perTask := make(map[parcheck.TaskID][]string)
	var order []parcheck.TaskID
	names := make(map[parcheck.TaskID]string)
	for _, e := range entries {
		if _, seen := perTask[e.TaskID]; !seen {
			order = append(order, e.TaskID)
			names[e.TaskID] = e.TaskName
		}
		perTask[e.TaskID] = append(perTask[e.TaskID], e.Operation)
	}

	fmt.Fprintln(w)
	for _, id := range order {
		fmt.Fprintf(w, "task %d:%s: %s\n", id, names[id], strings.Join(perTask[id], " -> "))
	}
	return nil
}
