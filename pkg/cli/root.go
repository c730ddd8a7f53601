// Package cli provides the command-line interface for Crucible
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	workspaceRoot string
	verbosity     string
	noNotify      bool
	version       string
)

// rootCmd represents the base command. Invoked without arguments it runs the
// entire plan, start to finish.
var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "The fail-fast build and test matrix runner",
	Long: `🔥 Crucible - Sequential build/test orchestration for the workspace

Crucible runs the full test matrix: every crate's tests under the default
configuration, the same crates again under the allocator-only configuration,
and finally a build of each example project. The first failing command aborts
the whole run; its exit code becomes Crucible's own.`,

	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("🔥 Crucible v%s\n", version)
			return nil
		}
		return runPlan(cmd.Context())
	},
}

// Execute runs the CLI
func Execute(v string) error {
	version = v

	// Initialize the root command explicitly (avoiding init())
	initializeRootCommand()

	err := rootCmd.Execute()
	if err != nil && !isReported(err) {
		printError(err.Error())
	}
	return err
}

// initializeRootCommand sets up the root command and its flags.
// This replaces the init() function to make initialization explicit and testable.
func initializeRootCommand() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&workspaceRoot, "root", "", "workspace root (default: the crucible binary's own directory)")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noNotify, "no-notify", false, "disable desktop notifications")

	rootCmd.Flags().Bool("version", false, "Print version information and quit")

	// Add subcommands
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	// Environment variables only; the plan itself has no configuration
	// surface.
	viper.SetEnvPrefix("CRUCIBLE")
	viper.AutomaticEnv()

	if !rootCmd.PersistentFlags().Changed("verbosity") {
		if env := viper.GetString("verbosity"); env != "" {
			verbosity = env
		}
	}
}

// ExitCodeError carries a child process's exit code up to main.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("run aborted with exit code %d", e.Code)
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}

	return 1
}

// isReported reports whether the error was already surfaced to the user by
// the command that produced it.
func isReported(err error) bool {
	var exitErr *ExitCodeError
	return errors.As(err, &exitErr)
}

// Helper functions

func printSuccess(message string) {
	flame := "🔥"
	fmt.Printf("%s %s %s\n", flame, color.GreenString("[Crucible]"), message)
}

func printError(message string) {
	flame := "🔥"
	fmt.Fprintf(os.Stderr, "%s %s %s\n", flame, color.RedString("[Crucible]"), message)
}

func printInfo(message string) {
	flame := "🔥"
	fmt.Printf("%s %s %s\n", flame, color.CyanString("[Crucible]"), message)
}
