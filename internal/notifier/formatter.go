package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"RiskOffRotator/internal/model"
)

// HelpText lists the supported bot commands.
const HelpText = "<b>Commands</b>\n" +
	"/signal - evaluate the regime now\n" +
	"/status - show the paper portfolio\n" +
	"/help - this message"

// FormatSignalReport formats one evaluation for Telegram.
func FormatSignalReport(sig *model.RegimeSignal) string {
	var b strings.Builder

	regime := "🟢 IN MARKET"
	if sig.Suspended {
		regime = "🔴 RISK-OFF"
	}
	b.WriteString(fmt.Sprintf("📊 <b>Risk-off signal</b> | %s\n\n", sig.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Regime: <b>%s</b>\n", regime))
	b.WriteString(fmt.Sprintf("Bear signal today: %s\n", yesNo(sig.BearSignal)))
	if sig.BearSeenInWindow {
		b.WriteString(fmt.Sprintf("Days since last bear signal: %d (suspend < %d)\n\n", sig.DaysSinceBear, sig.SuspendDays))
	} else {
		b.WriteString(fmt.Sprintf("No bear signal in the last %d days\n\n", sig.Window))
	}

	b.WriteString("📈 <b>Conditions:</b>\n")
	for _, c := range sig.Conditions {
		mark := "·"
		if c.Today {
			mark = "❗"
		} else if c.Recent {
			mark = "⚠️"
		}
		b.WriteString(fmt.Sprintf("  %s %s: %d days\n", mark, c.Name, c.DaysSince))
	}
	return b.String()
}

// FormatRebalance formats an accepted rebalance request.
func FormatRebalance(res *model.RebalanceResult) string {
	var b strings.Builder
	req := res.Request
	if res.Switched {
		b.WriteString(fmt.Sprintf("🔁 <b>Allocation switch</b>: %s → %s\n", orNone(res.PreviousAllocation), req.Allocation))
	} else {
		b.WriteString(fmt.Sprintf("♻️ <b>Rebalance</b>: %s\n", req.Allocation))
	}
	b.WriteString(formatWeights(req.Weights))
	b.WriteString(fmt.Sprintf("Trigger: %s\n", req.Trigger))
	b.WriteString(fmt.Sprintf("Request: <code>%s</code>\n", req.ID))
	return b.String()
}

// FormatPortfolioStatus formats the paper portfolio state.
func FormatPortfolioStatus(state model.PortfolioState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Portfolio</b>\n\n")
	b.WriteString(fmt.Sprintf("Allocation: %s\n", orNone(state.Allocation)))
	if len(state.Weights) > 0 {
		b.WriteString(formatWeights(state.Weights))
	}
	b.WriteString(fmt.Sprintf("Rebalances: %d | Switches: %d\n", state.RebalanceCount, state.SwitchCount))
	if !state.LastRebalanceAt.IsZero() {
		b.WriteString(fmt.Sprintf("Last rebalance: %s (%s)\n", state.LastRebalanceAt.Format("2006-01-02 15:04"), state.LastTrigger))
	}
	if !state.LastSwitchAt.IsZero() {
		b.WriteString(fmt.Sprintf("Last switch: %s\n", state.LastSwitchAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatError formats a failed cycle.
func FormatError(trigger model.TriggerType, stage string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s cycle failed</b> at %s\n<code>%s</code>", trigger, stage, html.EscapeString(err.Error()))
}

func formatWeights(w model.TargetWeights) string {
	syms := make([]string, 0, len(w))
	for s := range w {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	var b strings.Builder
	for _, s := range syms {
		b.WriteString(fmt.Sprintf("  %s: %.0f%%\n", s, w[s]*100))
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
