package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	flame "github.com/flame-sim/flame"
	"github.com/flame-sim/flame/pkg/importer"
	"github.com/flame-sim/flame/pkg/model"
	"github.com/flame-sim/flame/pkg/validator"
)

// compileModel loads and compiles the model at path, printing each
// validation error once, in declaration order, before failing.
func compileModel(path string) (*flame.CompileResult, error) {
	m, err := importer.New().Load(path)
	if err != nil {
		return nil, err
	}

	result, err := flame.Compile(m, validator.Options{
		StrictMemoryAccess: cfg.StrictMemoryAccess,
		Logger:             logger,
	})
	if err != nil {
		var report *model.ValidationReport
		if errors.As(err, &report) {
			for _, verr := range report.Errors {
				fmt.Fprintln(os.Stderr, "Error:", verr.Error())
			}
			plural := ""
			if report.Len() > 1 {
				plural = "s"
			}
			return nil, fmt.Errorf("%d error%s found", report.Len(), plural)
		}
		return nil, err
	}
	return result, nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model>",
		Short: "Validate a model and build its dependency graphs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := compileModel(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: model validated, %d tasks, %d agents, %d messages\n",
				result.Model.Name,
				result.Tasks.Len(),
				len(result.Model.Agents),
				len(result.Model.Messages))
			return nil
		},
	}
}
