// Command client is a small standalone driver for the matching engine:
// it seeds a book, runs a batch of synthetic generator steps or replays
// an upload file, and prints the resulting stream updates to stdout.
// Unlike cmd/server it talks to the engine in-process with no ring
// buffer involved - useful for quick manual inspection of a run.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rishav/order-matching-engine/internal/generator"
	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orders"
	"github.com/rishav/order-matching-engine/internal/price"
	"github.com/rishav/order-matching-engine/internal/stream"
	"github.com/rishav/order-matching-engine/internal/upload"
)

func main() {
	uploadPath := flag.String("upload", "", "Path to an upload file to replay instead of generating synthetic orders")
	seedCount := flag.Int("seed", 1000, "Number of orders to seed the book with before generating")
	steps := flag.Int("steps", 1000, "Number of synthetic generator steps to run (ignored with -upload)")
	meanPrice := flag.Float64("mean-price", 100.0, "Mean of the price distribution used to seed/generate orders")
	sdPrice := flag.Float64("sd-price", 5.0, "Standard deviation of the price distribution")
	topN := flag.Int("depth", 5, "Number of price levels to print per book snapshot")
	flag.Parse()

	engine := matching.NewEngine()
	formatter := stream.NewFormatter(engine, *topN, 1, false)

	if *uploadPath != "" {
		contents, err := os.ReadFile(*uploadPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read upload file: %v\n", err)
			os.Exit(1)
		}

		result := upload.ParseFile(string(contents))
		fmt.Printf("parsed %d/%d lines (%d invalid) in %s\n", result.Parsed, result.Total, result.Invalid, result.Elapsed)
		for _, e := range result.Errors {
			fmt.Printf("  parse error: %v\n", e)
		}

		for i, cmd := range result.Commands {
			engine.Process(cmd)
			stats := engine.LastStats()
			printMessages(formatter.Sample(i+1, cmd.Kind.String(), 0))
			if stats.Trades > 0 {
				fmt.Printf("-- command %d produced %d trade(s)\n", i+1, stats.Trades)
			}
		}
	} else {
		gen := generator.New(engine, *meanPrice, *sdPrice)
		gen.Seed(*seedCount)
		fmt.Printf("seeded %d orders (mean=%.2f sd=%.2f)\n", *seedCount, *meanPrice, *sdPrice)

		for i := 1; i <= *steps; i++ {
			gen.GenerateOrders()
			step := gen.Steps()[len(gen.Steps())-1]
			printMessages(formatter.Sample(i, step.Action, step.Latency))
		}
	}

	printBook(engine, *topN)
}

func printMessages(msgs []stream.Message) {
	for _, msg := range msgs {
		switch msg.Kind {
		case stream.KindTrades:
			for _, tr := range msg.Trades {
				fmt.Printf("TRADE %d @ %s (aggressor=%d passive=%d)\n", tr.Volume, tr.Price.StringFixed(price.Scale), tr.AggressorID, tr.PassiveID)
			}
		case stream.KindExecutionStats:
			if msg.Stats.Rebalances > 0 {
				fmt.Printf("  [%s] rebalances=%d trades=%d latency=%s\n", msg.Stats.CommandKind, msg.Stats.Rebalances, msg.Stats.TradesCount, msg.Stats.Latency)
			}
		}
	}
}

func printBook(engine *matching.Engine, depth int) {
	book := engine.Book()

	fmt.Println("\n=== final book ===")
	fmt.Println("ASKS:")
	asks := book.TopN(orders.SideAsk, depth)
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Printf("  %s x %d\n", price.Format(asks[i].Price), asks[i].Volume)
	}

	fmt.Println("BIDS:")
	for _, bid := range book.TopN(orders.SideBid, depth) {
		fmt.Printf("  %s x %d\n", price.Format(bid.Price), bid.Volume)
	}

	fmt.Printf("\nrebalances=%d trades=%d\n", engine.Rebalances(), engine.TradeCount())
}
