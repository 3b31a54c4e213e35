package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/cmd/scenario/internal/portfolio"
	"github.com/meenmo/morisk/config"
	"github.com/meenmo/morisk/greeks"
	"github.com/meenmo/morisk/logger"
	"github.com/meenmo/morisk/pricer"
	"github.com/meenmo/morisk/scenario"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app is the state shared by subcommands after configuration is loaded.
type app struct {
	envFile string
	cfg     *config.Config
	log     zerolog.Logger
	stderr  io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr}
	root := &cobra.Command{
		Use:           "scenario",
		Short:         "Bump and scenario sensitivities for a YAML portfolio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if a.envFile != "" {
				files = append(files, a.envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.NewWithWriter(cfg.Logger(), a.stderr)
			logger.SetGlobalLogger(a.log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", "", "Optional .env file (defaults to ./.env when present)")

	root.AddCommand(a.runCmd())
	root.AddCommand(a.greeksCmd())
	return root
}

func (a *app) loadPortfolio(path string) (*portfolio.Portfolio, error) {
	if path == "" {
		return nil, errors.New("--portfolio is required")
	}
	return portfolio.Load(path, bump.NewRegistry(), a.cfg.Curve())
}

func (a *app) runCmd() *cobra.Command {
	var portfolioPath, scenarioPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply a scenario file to every instrument and print the result table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadPortfolio(portfolioPath)
			if err != nil {
				return err
			}
			if scenarioPath == "" {
				return errors.New("--scenarios is required")
			}
			set, err := scenario.LoadFile(scenarioPath)
			if err != nil {
				return err
			}

			opts := set.OptionsOver(scenario.Options{
				ReevaluateCurves: a.cfg.ReevaluateCurves,
				IncludeDelta:     a.cfg.IncludeDelta,
			})
			opts.Logger = a.log

			table, err := scenario.CalcScenario(cmd.Context(), p.Pricers, set.Measures, set.Scenarios, opts)
			if table != nil {
				if werr := writeTable(cmd.OutOrStdout(), table, asJSON); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&portfolioPath, "portfolio", "p", "", "Portfolio YAML")
	cmd.Flags().StringVarP(&scenarioPath, "scenarios", "s", "", "Scenario YAML")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of a text table")
	return cmd
}

func writeTable(w io.Writer, t *scenario.Table, asJSON bool) error {
	if !asJSON {
		return t.WriteText(w)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

func (a *app) greeksCmd() *cobra.Command {
	var (
		portfolioPath, pricerName, measure, mode string
		termConvention                           string
		targets                                  []string
		size                                     float64
		relative, parallel                       bool
	)

	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Finite-difference delta and gamma of one instrument",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadPortfolio(portfolioPath)
			if err != nil {
				return err
			}
			pr, ok := p.Find(pricerName)
			if !ok {
				return fmt.Errorf("no instrument named %q", pricerName)
			}

			if !cmd.Flags().Changed("size") {
				size = a.cfg.BumpSize
			}
			flags := a.cfg.BumpFlags()
			if cmd.Flags().Changed("relative") {
				flags = bump.Absolute
				if relative {
					flags = bump.Relative
				}
			}
			m := a.cfg.Mode()
			if mode != "" {
				if m, err = greeks.ParseMode(mode); err != nil {
					return err
				}
			}

			conv, err := bump.ParseConvention(termConvention)
			if err != nil {
				return err
			}
			h, err := bump.NewRegistry().Resolve(conv, bump.RefData{})
			if err != nil {
				return err
			}
			ts, err := resolveTargets(pr, targets, parallel, h)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "Target\tBase\tDelta\tGamma\t")
			for _, t := range ts {
				d, err := greeks.Delta(pr, t, measure, size, flags, m, greeks.WithLogger(a.log))
				if err != nil {
					return fmt.Errorf("%s: %w", t, err)
				}
				g, err := greeks.Gamma(pr, t, measure, size, flags, greeks.WithLogger(a.log))
				if err != nil {
					return fmt.Errorf("%s: %w", t, err)
				}
				fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.6f\t\n", t, d.Base, d.Value, g.Value)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&portfolioPath, "portfolio", "p", "", "Portfolio YAML")
	cmd.Flags().StringVar(&pricerName, "pricer", "", "Instrument name")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "Tenor or term to bump (repeatable)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Also bump all curve tenors together")
	cmd.Flags().StringVar(&measure, "measure", "Pv", "Measure to differentiate")
	cmd.Flags().Float64Var(&size, "size", 1, "Bump size in handler units (overrides MORISK_BUMP_SIZE)")
	cmd.Flags().BoolVar(&relative, "relative", false, "Relative bump (overrides MORISK_BUMP_RELATIVE)")
	cmd.Flags().StringVar(&mode, "mode", "", "central or one-sided (overrides MORISK_DELTA_MODE)")
	cmd.Flags().StringVar(&termConvention, "term-convention", "yield", "Convention whose unit scales bumps of non-tenor terms")
	_ = cmd.MarkFlagRequired("pricer")
	return cmd
}

// resolveTargets maps names to curve tenors when the instrument has one of
// that name, and to pricer terms bumped with termHandler's unit otherwise.
func resolveTargets(p pricer.Pricer, names []string, parallel bool, termHandler bump.Handler) ([]greeks.Target, error) {
	cp, hasCurve := p.(pricer.CurvePricer)
	var out []greeks.Target
	for _, n := range names {
		if hasCurve {
			if t, ok := findTenor(cp, n); ok {
				out = append(out, t)
				continue
			}
		}
		if _, err := p.Term(n); err != nil {
			return nil, err
		}
		out = append(out, greeks.Term(n, termHandler))
	}
	if parallel {
		if !hasCurve || len(cp.Tenors()) == 0 {
			return nil, fmt.Errorf("%s has no curve for a parallel bump", p.Name())
		}
		out = append(out, greeks.Parallel(cp))
	}
	if len(out) == 0 {
		return nil, errors.New("nothing to bump: pass --target or --parallel")
	}
	return out, nil
}

func findTenor(cp pricer.CurvePricer, name string) (greeks.Target, bool) {
	for _, t := range cp.Tenors() {
		if t.Name == name {
			return greeks.Tenors(t), true
		}
	}
	return greeks.Target{}, false
}
