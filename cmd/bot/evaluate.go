package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"RiskOffRotator/internal/config"
	"RiskOffRotator/internal/model"
	"RiskOffRotator/internal/strategy"
)

type evaluation struct {
	Signal     *model.RegimeSignal `json:"signal"`
	Allocation string              `json:"allocation"`
	Weights    model.TargetWeights `json:"weights"`
}

func evaluateCmd(cfgPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Fetch prices, evaluate the regime once and print the target allocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Schedule.TaskTimeout)
			defer cancel()

			ev, err := evaluateOnce(ctx, cfg)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ev)
			}
			printEvaluation(cmd.OutOrStdout(), ev)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func evaluateOnce(ctx context.Context, cfg *config.Config) (*evaluation, error) {
	col, closeCache := buildCollector(ctx, cfg)
	defer closeCache()

	snaps, err := col.Collect(ctx)
	if err != nil {
		return nil, err
	}
	params := cfg.StrategyParams()
	sig, err := strategy.Evaluate(&params, snaps)
	if err != nil {
		return nil, err
	}
	return newEvaluation(cfg, sig), nil
}

func newEvaluation(cfg *config.Config, sig *model.RegimeSignal) *evaluation {
	ev := &evaluation{Signal: sig, Allocation: model.AllocationMarket, Weights: cfg.Allocations.Market.Clone()}
	if sig.Suspended {
		ev.Allocation = model.AllocationSafe
		ev.Weights = cfg.Allocations.Safe.Clone()
	}
	return ev
}

func printEvaluation(w io.Writer, ev *evaluation) {
	sig := ev.Signal
	fmt.Fprintf(w, "as of:        %s\n", sig.AsOf.Format(time.DateOnly))
	fmt.Fprintf(w, "suspended:    %v\n", sig.Suspended)
	fmt.Fprintf(w, "bear today:   %v\n", sig.BearSignal)
	fmt.Fprintf(w, "days since:   %d (window %d, suspend < %d)\n", sig.DaysSinceBear, sig.Window, sig.SuspendDays)
	for _, c := range sig.Conditions {
		fmt.Fprintf(w, "  %-24s today=%-5v days=%-3d recent=%v\n", c.Name, c.Today, c.DaysSince, c.Recent)
	}

	syms := make([]string, 0, len(ev.Weights))
	for s := range ev.Weights {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	fmt.Fprintf(w, "allocation:   %s\n", ev.Allocation)
	for _, s := range syms {
		fmt.Fprintf(w, "  %-6s %.2f\n", s, ev.Weights[s])
	}
}
