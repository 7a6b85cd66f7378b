package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flame-sim/flame/pkg/model"
)

// taskKindToString maps a task kind to the queue column of the task
// table: agent work is "func", board work "comm", population I/O "disk".
func taskKindToString(k model.TaskKind) string {
	switch k {
	case model.TaskIOPopWrite, model.TaskStartModel, model.TaskFinishModel:
		return "disk"
	case model.TaskMessageSync, model.TaskMessageClear:
		return "comm"
	case model.TaskFunction, model.TaskCondition:
		return "func"
	default:
		return ""
	}
}

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <model>",
		Short: "Print the ordered task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := compileModel(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLevel\tPriority\tType\tName")
			fmt.Fprintln(w, "--\t-----\t--------\t----\t----")
			for _, t := range result.Tasks.Tasks {
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n",
					t.ID, t.Level, t.PriorityLevel,
					taskKindToString(t.Kind), t.FullName())
			}
			return w.Flush()
		},
	}
}
