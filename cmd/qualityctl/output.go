package main

import (
	"fmt"
	"io"
	"strings"

	"call-quality-go/internal/aggregator"
	"call-quality-go/internal/processor"
	"call-quality-go/internal/scoring"
	"call-quality-go/internal/types"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(colorGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(colorRed, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(colorYellow, "⚠ "+fmt.Sprintf(format, args...)))
}

func printStatus(w io.Writer, label, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}

func printResult(w io.Writer, res processor.Result) {
	rec := res.Record
	verdict := colorize(colorGreen, "OK")
	if rec.NeedsReview {
		verdict = colorize(colorRed, "NEEDS REVIEW")
	}
	fmt.Fprintf(w, "%s  %s\n", colorize(colorBold, rec.CallID), verdict)
	printStatus(w, "Customer", "%s", rec.CustomerName)
	printStatus(w, "Sentiment", "%s (%.2f)", rec.Sentiment, rec.SentimentConfidence)
	printStatus(w, "Score", "%.1f / threshold %.1f", rec.QualityScore, rec.ReviewThreshold)
	printStatus(w, "Flags", "%s", rec.ReviewFlags)
	if rec.NeedsReview {
		fmt.Fprintln(w)
		fmt.Fprintln(w, rec.SupervisorSummary)
		fmt.Fprintln(w)
		fmt.Fprintln(w, rec.CustomerMessage)
	}
	for _, warn := range res.Warnings {
		printWarning(w, "%s", warn)
	}
}

func printRow(w io.Writer, rec types.CallRecord) {
	mark := " "
	if rec.NeedsReview {
		mark = "!"
	}
	fmt.Fprintf(w, "%s %-14s %-9s %5.1f  %s\n", mark, rec.CallID, rec.Sentiment, rec.QualityScore, rec.ReviewFlags)
}

func printBreakdown(w io.Writer, label types.Sentiment, confidence float64, b scoring.Breakdown) {
	printStatus(w, "Sentiment", "%s (%.2f)", label, confidence)
	if b.Empty {
		printStatus(w, "Score", "%.1f (empty transcript)", b.Score)
		return
	}
	printStatus(w, "Base", "%+.1f", b.Base)
	printStatus(w, "Sentiment delta", "%+.1f", b.Sentiment)
	printStatus(w, "Length", "%+.1f", b.Length)
	complaints := "none"
	if len(b.ComplaintWords) > 0 {
		complaints = strings.Join(b.ComplaintWords, ", ")
	}
	printStatus(w, "Complaints", "%+.1f (%s)", b.Complaints, complaints)
	printStatus(w, "Score", "%.1f", b.Score)
}

func printDashboard(w io.Writer, d aggregator.Dashboard) {
	printStatus(w, "Total calls", "%d", d.TotalCalls)
	printStatus(w, "Flagged", "%d (%.1f%%)", d.FlaggedCalls, d.FlaggedPct)
	printStatus(w, "Average score", "%.1f (%+.1f vs neutral)", d.AvgScore, d.AvgScoreDelta)
	printStatus(w, "Notifications", "%d", d.Notifications)
	for _, s := range []types.Sentiment{types.Positive, types.Neutral, types.Negative} {
		printStatus(w, string(s), "%d", d.SentimentCounts[s])
	}
	fmt.Fprintln(w)
	for _, b := range d.ScoreHistogram {
		if b.Total == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-7s %s %d\n", b.Label, strings.Repeat("#", b.Total), b.Total)
	}
	if len(d.FlaggedByScore) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, colorize(colorBold, "Worst calls first:"))
		for _, rec := range d.FlaggedByScore {
			printRow(w, rec)
		}
	}
}
