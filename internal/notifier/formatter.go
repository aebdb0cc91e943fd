package notifier

import (
	"fmt"
	"html"
	"strings"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recorder"
)

// Disclaimer is appended to every signal message.
const Disclaimer = "⚠️ This tool is for educational analysis only. Trading involves risk."

func badge(d model.Direction) string {
	switch d {
	case model.DirectionCall:
		return "🟢"
	case model.DirectionPut:
		return "🔴"
	default:
		return "⚪"
	}
}

func opt(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.5g", *v)
}

// FormatSignal formats one asset evaluation into a Telegram message.
func FormatSignal(a *model.Analysis) string {
	var b strings.Builder
	res := a.Result

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s | %s\n\n",
		html.EscapeString(a.Asset), a.Interval, a.At.UTC().Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("%s <b>%s</b>", badge(res.Signal), res.Signal.Label()))
	if res.Signal != model.DirectionWait {
		b.WriteString(fmt.Sprintf(" | confidence %d%%", res.Confidence))
	}
	b.WriteString("\n\n")

	row := a.Row
	b.WriteString(fmt.Sprintf("Close: %.5g\n", row.Close))
	b.WriteString(fmt.Sprintf("RSI: %s | ADX: %s\n", opt(row.RSI), opt(row.ADX)))
	b.WriteString(fmt.Sprintf("Stoch K/D: %s / %s\n", opt(row.StochK), opt(row.StochD)))
	b.WriteString(fmt.Sprintf("BB: %s - %s\n", opt(row.LowerBB), opt(row.UpperBB)))
	if a.Series != nil && a.Series.ADXFallback {
		b.WriteString("(ADX unavailable, defaulted to 0)\n")
	}

	if len(res.Factors) > 0 {
		b.WriteString("\n📈 <b>Factors:</b>\n")
		for _, f := range res.Factors {
			b.WriteString(fmt.Sprintf("  %s: %+d\n", f.Name, f.Delta))
		}
		b.WriteString("  ─────────────────\n")
		b.WriteString(fmt.Sprintf("  Score: %+d\n", res.Score))
	}

	b.WriteString("\n<b>Reasons:</b>\n")
	if len(res.Reasons) == 0 {
		b.WriteString("Market is ranging. No clear bias detected.\n")
	}
	for _, r := range res.Reasons {
		b.WriteString(fmt.Sprintf("✅ %s\n", html.EscapeString(r)))
	}

	b.WriteString("\n" + Disclaimer)
	return b.String()
}

// FormatAlert formats a signal transition alert.
func FormatAlert(a *model.Analysis, previous model.Direction) string {
	return fmt.Sprintf("🔔 <b>Signal change</b>: %s → %s\n\n%s", previous.Label(), a.Result.Signal.Label(), FormatSignal(a))
}

// FormatSweep summarises one evaluation of every asset on an interval.
func FormatSweep(interval string, results []collector.AssetResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>All assets</b> | %s\n\n", interval))
	for _, r := range results {
		label := html.EscapeString(r.Asset.Label)
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", label, html.EscapeString(r.Err.Error())))
			continue
		}
		res := r.Analysis.Result
		if res.Signal == model.DirectionWait {
			b.WriteString(fmt.Sprintf("%s %s: %s\n", badge(res.Signal), label, res.Signal.Label()))
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s: %s %d%% (score %+d)\n", badge(res.Signal), label, res.Signal.Label(), res.Confidence, res.Score))
	}
	b.WriteString("\n" + Disclaimer)
	return b.String()
}

// FormatAssets lists the configured assets and timeframes.
func FormatAssets(assets []model.Asset, timeframes []string) string {
	var b strings.Builder
	b.WriteString("📦 <b>Assets</b>\n\n")
	for _, a := range assets {
		b.WriteString(fmt.Sprintf("• %s (%s)\n", html.EscapeString(a.Label), html.EscapeString(a.Symbol)))
	}
	b.WriteString(fmt.Sprintf("\nTimeframes: %s\n", strings.Join(timeframes, ", ")))
	return b.String()
}

// FormatHistory formats recorded evaluations, newest first.
func FormatHistory(asset string, records []recorder.SignalRecord) string {
	var b strings.Builder
	title := "all assets"
	if asset != "" {
		title = asset
	}
	b.WriteString(fmt.Sprintf("🕘 <b>History</b> | %s\n\n", html.EscapeString(title)))
	if len(records) == 0 {
		b.WriteString("No recorded signals.\n")
		return b.String()
	}
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s %s %s %s %s",
			r.At.UTC().Format("01-02 15:04"), badge(r.Signal), html.EscapeString(r.Asset), r.Interval, r.Signal.Label()))
		if r.Signal != model.DirectionWait {
			b.WriteString(fmt.Sprintf(" %d%%", r.Confidence))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHelp lists the available commands.
func FormatHelp(timeframes []string) string {
	tf := strings.Join(timeframes, "|")
	return "Available commands:\n" +
		fmt.Sprintf("• /signal &lt;asset&gt; [%s]\n", tf) +
		fmt.Sprintf("• /all [%s]\n", tf) +
		"• /history [asset]\n" +
		"• /assets"
}
