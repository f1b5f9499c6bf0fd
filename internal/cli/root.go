package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/config"
)

var (
	cfg *config.Config

	flagConfig  string
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "lending",
	Short: "Run and administer the library lending engine",
	Long: `lending manages a library catalog, book loans, late fees and late fee
payments. Run 'lending serve' to expose the engine over HTTP and gRPC, or use
the admin commands against the configured store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: $LENDING_CONFIG or ~/.config/lending/lending.yml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if flagNoColor {
			color.NoColor = true
		}

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newConfigCmd(),
		newBookCmd(),
		newBorrowCmd(),
		newReturnCmd(),
		newFeeCmd(),
		newStatusCmd(),
		newPayCmd(),
		newRefundCmd(),
		newGatewayCmd(),
	)
}

// ok prints a green success line.
func ok(format string, a ...any) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...any) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// failed prints a red line for a rejected operation.
func failed(format string, a ...any) {
	fmt.Fprintln(os.Stderr, color.RedString("✗"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...any) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}
