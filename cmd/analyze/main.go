package main

import (
	"fmt"
	"math"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tradejournal/internal/engine"
	"github.com/tradejournal/internal/parser"
)

var capitalBase float64

var rootCmd = &cobra.Command{
	Use:   "analyze <orderbook.csv>",
	Short: "Analyze a broker orderbook CSV offline",
	Long: `Parses a broker orderbook export, matches executions into round
trips, reconciles PnL against the raw legs and prints the quality analysis
without touching the server or the database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(args[0])
	},
}

func init() {
	rootCmd.Flags().Float64Var(&capitalBase, "capital", engine.DefaultCapitalBase,
		"notional account size used for position sizing checks")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	legs, format, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	res := engine.Match(legs)
	engine.Reconcile(res, legs)
	engine.Classify(res.RoundTrips, capitalBase)
	stats := engine.Aggregate(res.RoundTrips)

	fmt.Printf("format: %s | legs: %d | round trips: %d | open qty: %d\n\n",
		format, len(legs), len(res.RoundTrips), res.OpenQuantity())

	printRoundTrips(res.RoundTrips)
	printSummary(stats)
	return nil
}

func printRoundTrips(roundTrips []*engine.RoundTrip) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Symbol", "Side", "Qty", "Entry", "Exit", "Held", "PnL", "Tags")

	for _, rt := range roundTrips {
		side := "SHORT"
		if rt.IsLong() {
			side = "LONG"
		}
		tags := ""
		for _, t := range rt.DemonTags {
			tags += "!" + t + " "
		}
		for _, t := range rt.GoodTags {
			tags += "+" + t + " "
		}
		table.Append(
			rt.Symbol,
			side,
			fmt.Sprintf("%d", rt.Quantity),
			fmt.Sprintf("%.2f", rt.Entry.Price),
			fmt.Sprintf("%.2f", rt.Exit.Price),
			fmt.Sprintf("%.0fm", rt.HoldingMinutes),
			fmt.Sprintf("%.2f", rt.PnL),
			tags,
		)
	}

	table.Render()
}

func printSummary(stats *engine.Stats) {
	pf := fmt.Sprintf("%.2f", stats.ProfitFactor)
	if math.IsInf(stats.ProfitFactor, 1) {
		pf = "INF"
	}

	fmt.Printf("\nnet pnl: %.2f | wins: %d | losses: %d | win%%: %.1f | profit factor: %s | score: %.1f\n",
		stats.NetPnL, stats.Wins, stats.Losses, stats.TradeWinPercent, pf, stats.Score)

	if len(stats.TopIssues) > 0 {
		fmt.Println("\ntop issues:")
		for _, issue := range stats.TopIssues {
			fmt.Printf("  - %s\n", issue)
		}
	}
}
