package bot

import (
	"fmt"
	"sort"
	"strings"

	"biarb/internal/domain/model"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

// maxSummaryRows caps the opportunity table at the top entries.
const maxSummaryRows = 10

// Formatter renders the textual dashboard frame: signal, opportunity
// ranking, open positions, balances, statistics and error counters.
type Formatter struct {
	venueA string
	venueB string
}

func NewFormatter(venueA, venueB string) *Formatter {
	return &Formatter{venueA: venueA, venueB: venueB}
}

// Frame is one cycle's worth of display data.
type Frame struct {
	Signal    *model.Signal
	Summary   []model.Opportunity
	Positions []*model.Position
	Balances  map[string]model.Balance
	Stats     model.Statistics
	Errors    map[Category]int
}

func (f *Formatter) Render(fr Frame) string {
	var sb strings.Builder

	sb.WriteString(colorize("[BIARB] ", ansiDim))
	f.renderSignal(&sb, fr.Signal)
	sb.WriteString("\n")
	f.renderSummary(&sb, fr.Summary)
	f.renderPositions(&sb, fr.Positions)
	f.renderBalances(&sb, fr.Balances)
	f.renderStats(&sb, fr.Stats)
	f.renderErrors(&sb, fr.Errors)
	return sb.String()
}

func (f *Formatter) renderSignal(sb *strings.Builder, sig *model.Signal) {
	if sig == nil {
		sb.WriteString(colorize("no signal yet", ansiDim))
		return
	}
	if !sig.ShouldTrade {
		sb.WriteString(colorize("no opportunity: "+sig.Reason, ansiRed))
		return
	}
	sb.WriteString(colorize(sig.Reason, ansiGreen))
	fmt.Fprintf(sb, "\n  buy spot %s @ %.2f  |  short contract %s @ %.2f  |  expected profit %.4f%%",
		sig.BuyVenue, sig.BuyPrice, sig.ShortVenue, sig.ShortPrice, sig.ProfitPotential*100)
}

func (f *Formatter) renderSummary(sb *strings.Builder, summary []model.Opportunity) {
	if len(summary) == 0 {
		return
	}
	sb.WriteString(colorize("-- opportunities --\n", ansiDim))
	n := len(summary)
	if n > maxSummaryRows {
		n = maxSummaryRows
	}
	for _, opp := range summary[:n] {
		mark := colorize("x", ansiRed)
		if opp.Profitable {
			mark = colorize("o", ansiGreen)
		}
		fmt.Fprintf(sb, " %s %-10s %-14s %8.4f%%  %10.2f\n",
			mark, opp.Symbol, opp.Direction, opp.SpreadPercent*100, opp.Spread)
	}
}

func (f *Formatter) renderPositions(sb *strings.Builder, positions []*model.Position) {
	if len(positions) == 0 {
		sb.WriteString(colorize("-- no open positions --\n", ansiDim))
		return
	}
	fmt.Fprintf(sb, "%s", colorize(fmt.Sprintf("-- open positions (%d) --\n", len(positions)), ansiDim))
	for _, p := range positions {
		fmt.Fprintf(sb, " %s buy %s@%.2f short %s@%.2f qty %.6f entry spread %.2f\n",
			colorize(p.Symbol, ansiCyan), p.BuyVenue, p.BuyPrice, p.ShortVenue, p.ShortPrice, p.Quantity, p.EntrySpread)
	}
}

func (f *Formatter) renderBalances(sb *strings.Builder, balances map[string]model.Balance) {
	sb.WriteString(colorize("-- balances --\n", ansiDim))
	for _, venue := range []string{f.venueA, f.venueB} {
		b, ok := balances[venue]
		if !ok {
			continue
		}
		assets := make([]string, 0, len(b.Assets))
		for a, v := range b.Assets {
			if v > 0 {
				assets = append(assets, fmt.Sprintf("%s: %.4f", a, v))
			}
		}
		sort.Strings(assets)
		held := "none"
		if len(assets) > 0 {
			held = strings.Join(assets, " | ")
		}
		fmt.Fprintf(sb, " %-8s cash %s contracts %.6f holdings %s\n",
			venue, colorize(fmt.Sprintf("$%.2f", b.Cash), ansiGreen), b.Contracts, held)
	}
}

func (f *Formatter) renderStats(sb *strings.Builder, st model.Statistics) {
	fmt.Fprintf(sb, "%s trades %d  win rate %.2f%%  total %s  daily $%.2f  open %d\n",
		colorize("-- stats --", ansiDim),
		st.TotalTrades, st.WinRate, colorize(fmt.Sprintf("$%.2f", st.TotalProfit), ansiYellow),
		st.DailyProfit, st.OpenPositions)
}

func (f *Formatter) renderErrors(sb *strings.Builder, errs map[Category]int) {
	parts := make([]string, 0, len(Categories))
	for _, cat := range Categories {
		parts = append(parts, fmt.Sprintf("%s=%d", cat, errs[cat]))
	}
	fmt.Fprintf(sb, "%s %s\n", colorize("-- errors --", ansiDim), strings.Join(parts, " "))
}
