package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/crucible-build/crucible/pkg/plan"
)

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the materialized plan without executing it",
		Long: `Print every phase and invocation of the plan, in execution order.
Nothing is executed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}

			p := plan.NewBuilder(root).Build()

			switch format {
			case "yaml":
				out, err := plan.RenderYAML(p)
				if err != nil {
					return err
				}
				fmt.Print(out)

			case "table":
				for _, phase := range p.Phases {
					fmt.Printf("%s (%d invocations)\n",
						color.New(color.FgBlue, color.Bold).Sprint(phase.Name),
						len(phase.Invocations))
					for _, inv := range phase.Invocations {
						fmt.Printf("  %s\n", inv.CommandLine())
					}
				}

			default:
				return fmt.Errorf("unknown format: %s (expected table or yaml)", format)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format (table, yaml)")

	return cmd
}
