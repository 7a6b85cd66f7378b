package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flame-sim/flame/pkg/engine"
	"github.com/flame-sim/flame/pkg/memory"
	"github.com/flame-sim/flame/pkg/messageboard"
	"github.com/flame-sim/flame/pkg/schedule"
)

// newRunCmd dry-runs a compiled model: memory and boards are set up for
// real, agent functions run as logging stubs that still evaluate their
// transition conditions. Useful to inspect scheduling behaviour before
// generating the real simulation program.
func newRunCmd() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "run <model>",
		Short: "Dry-run the scheduled task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Iterations
			}
			result, err := compileModel(args[0])
			if err != nil {
				return err
			}
			m := result.Model

			mem := memory.NewManager()
			for _, agent := range m.Agents {
				if err := mem.RegisterAgent(agent.Name); err != nil {
					return err
				}
				mem.HintPopulationSize(agent.Name, 100)
				for _, variable := range agent.Variables {
					switch variable.Type {
					case "int":
						err = memory.RegisterAgentVar[int](mem, agent.Name, variable.Name, "int")
					case "double":
						err = memory.RegisterAgentVar[float64](mem, agent.Name, variable.Name, "double")
					default:
						logger.Warn().
							Str("agent", agent.Name).
							Str("variable", variable.Name).
							Str("type", variable.Type).
							Msg("no registered column type, variable not stored")
						continue
					}
					if err != nil {
						return err
					}
				}
			}

			evaluator, err := engine.NewConditionEvaluator(m, cfg.ConditionCacheSize)
			if err != nil {
				return err
			}

			iteration := 0
			funcMap := make(map[string]schedule.TaskFunc)
			for _, agent := range m.Agents {
				for _, f := range agent.Functions {
					fn := f
					funcMap[f.Name] = func(ctx context.Context) error {
						if fn.Condition != nil {
							ok, err := evaluator.Eval(fn.Condition, engine.Env{
								Agent:     map[string]any{},
								Iteration: iteration,
							})
							if err != nil {
								return err
							}
							if !ok {
								logger.Debug().Str("function", fn.Name).Msg("condition false, skipped")
								return nil
							}
						}
						logger.Debug().Str("function", fn.Name).Msg("function executed")
						return nil
					}
				}
			}

			boards := messageboard.NewManager()
			exec := engine.NewExecutor(boards, engine.Options{
				MaxParallelism: cfg.MaxParallelism,
				Logger:         logger,
				IOHandler: func(ctx context.Context, agent, variable string, op schedule.IOOp) error {
					if op == schedule.IOOpOutput && variable != "" {
						wrapper, err := mem.GetVectorWrapper(agent, variable)
						if err != nil {
							// Variables without a registered column
							// still schedule; there is nothing to
							// snapshot.
							return nil
						}
						logger.Info().
							Str("agent", agent).
							Str("variable", variable).
							Int("population", wrapper.Len()).
							Msg("population write")
					}
					return nil
				},
			})

			if err := schedule.Register(result.ModelGraph, funcMap, exec); err != nil {
				return err
			}

			for i := 1; i <= iterations; i++ {
				iteration = i
				if err := exec.Run(cmd.Context(), 1); err != nil {
					return err
				}
			}
			fmt.Printf("%s: %d iteration(s) completed, %d tasks per iteration\n",
				m.Name, iterations, result.Tasks.Len())
			return nil
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", 1, "number of iterations to run")
	return cmd
}
