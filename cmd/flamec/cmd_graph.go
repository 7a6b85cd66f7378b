package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	flame "github.com/flame-sim/flame"
	"github.com/flame-sim/flame/pkg/visualization"
)

func newGraphCmd() *cobra.Command {
	var (
		format    string
		stateOnly bool
	)

	cmd := &cobra.Command{
		Use:   "graph <model>",
		Short: "Render the model dependency graph and per-agent state graphs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := compileModel(args[0])
			if err != nil {
				return err
			}

			var renderer visualization.Renderer
			var ext string
			switch format {
			case "dot":
				renderer, ext = visualization.NewDotRenderer(), ".dot"
			case "mermaid":
				renderer, ext = visualization.NewMermaidRenderer(), ".mmd"
			case "ascii":
				renderer = visualization.NewASCIIRenderer()
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			name := result.Model.Name
			if name == "" {
				name = "model"
			}

			if format == "ascii" {
				out, err := renderer.Render(result.ModelGraph.Graph(),
					&visualization.RenderOptions{Title: name, UseColor: true})
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			}

			stateGraphs, err := flame.StateGraphs(result.Model)
			if err != nil {
				return err
			}
			for agent, sg := range stateGraphs {
				file := filepath.Join(cfg.GraphDir, agent+"_stategraph"+ext)
				opts := &visualization.RenderOptions{Title: agent, Direction: "TD"}
				if err := visualization.WriteFile(renderer, sg.Graph(), opts, file); err != nil {
					return err
				}
				logger.Info().Str("file", file).Msg("state graph written")
			}

			if !stateOnly {
				file := filepath.Join(cfg.GraphDir, name+ext)
				opts := &visualization.RenderOptions{Title: name, Direction: "TD"}
				if err := visualization.WriteFile(renderer, result.ModelGraph.Graph(), opts, file); err != nil {
					return err
				}
				logger.Info().Str("file", file).Msg("dependency graph written")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "dot", "output format: dot, mermaid or ascii")
	cmd.Flags().BoolVar(&stateOnly, "state-only", false, "render only the per-agent state graphs")
	return cmd
}
