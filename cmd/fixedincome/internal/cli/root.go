// Package cli implements the fixedincome command: JSON in, JSON out, one
// subcommand per operation.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meenmo/fixedincome/config"
)

// ErrItemsFailed is returned when at least one input item produced an error output.
var ErrItemsFailed = errors.New("one or more items failed")

type rootFlags struct {
	configPath string
	logLevel   string
	inputPath  string
}

// NewRootCommand builds the command tree. Results go to stdout; logs go to logger.
func NewRootCommand(stdin io.Reader, stdout io.Writer, logger zerolog.Logger) *cobra.Command {
	var flags rootFlags
	h := &Handler{Config: config.DefaultConfig, Logger: logger}

	root := &cobra.Command{
		Use:   "fixedincome",
		Short: "Fixed-income cashflows, valuation, yields, curves, swaps and P&L attribution",
		Long: `fixedincome reads JSON from --input or stdin and writes JSON to stdout.

Input may be a single object or an array of objects; the output has the same
shape. An item that fails is reported as {"error": ...} in its place and the
command exits with status 1.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(strings.ToLower(flags.logLevel))
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", flags.logLevel, err)
			}
			h.Logger = logger.Level(level)
			if flags.configPath == "" {
				return nil
			}
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			h.Config = cfg
			h.Logger.Debug().Str("path", flags.configPath).Msg("config loaded")
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config path (defaults apply when omitted)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.inputPath, "input", "", "JSON input path (reads stdin if omitted)")

	root.AddCommand(
		command(&flags, "cashflows", "Generate the cashflow schedule of a fixed-coupon security",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Cashflows)
			}),
		command(&flags, "value", "Present value, duration, convexity and DV01 on a flat yield or a curve",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Value)
			}),
		command(&flags, "yield", "Solve the flat yield that reproduces a dirty price",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Yield)
			}),
		command(&flags, "curve", "Build a curve from zero rates, par swap quotes or bond quotes",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Curve)
			}),
		command(&flags, "attribute", "Split a security's value change into carry, realized forward and residual",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Attribute)
			}),
		command(&flags, "swap", "Price a fixed-for-overnight swap: leg PVs, NPV, par rate and par spread",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Swap)
			}),
		command(&flags, "bill", "Price a discount bill and its bond-equivalent and zero yields",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Bill)
			}),
		command(&flags, "return", "Realized and annualized return of a buy-and-sell round trip",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				return Process(raw, h.Return)
			}),
		command(&flags, "portfolio", "Value many securities concurrently",
			func(cmd *cobra.Command, raw []byte) ([]byte, bool, error) {
				ctx := cmd.Context()
				return Process(raw, func(in PortfolioInput) (PortfolioOutput, error) {
					return h.Portfolio(ctx, in)
				})
			}),
	)
	return root
}

type runFunc func(cmd *cobra.Command, raw []byte) ([]byte, bool, error)

func command(flags *rootFlags, use, short string, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), strings.TrimSpace(flags.inputPath))
			if err != nil {
				return writeError(cmd.OutOrStdout(), fmt.Errorf("read input: %w", err))
			}
			out, failed, err := run(cmd, raw)
			if err != nil {
				return writeError(cmd.OutOrStdout(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if failed {
				return ErrItemsFailed
			}
			return nil
		},
	}
}

func writeError(w io.Writer, err error) error {
	b, _ := json.Marshal(errorOutput{Error: err.Error()})
	fmt.Fprintln(w, string(b))
	return err
}

// Execute runs the command tree and returns the process exit code.
func Execute(args []string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) int {
	root := NewRootCommand(stdin, stdout, logger)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, ErrItemsFailed) {
			logger.Error().Err(err).Msg("fixedincome failed")
		}
		return 1
	}
	return 0
}
