// Command server runs the matching engine as a long-lived process: it
// wires config, logging, the disruptor command loop, the synthetic
// order generator, and the stream formatter together, then drives the
// book forward either from a generator run or a replayed upload file.
//
// There is no HTTP/WebSocket transport here - the session protocol this
// process implements is the same add/modify/cancel command vocabulary
// and streaming update taxonomy a gateway would speak to it, just
// exercised directly from flags instead of over the wire.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rishav/order-matching-engine/internal/config"
	"github.com/rishav/order-matching-engine/internal/disruptor"
	"github.com/rishav/order-matching-engine/internal/generator"
	"github.com/rishav/order-matching-engine/internal/logging"
	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/ratelimit"
	"github.com/rishav/order-matching-engine/internal/stream"
	"github.com/rishav/order-matching-engine/internal/upload"
)

func main() {
	configPath := flag.String("config", "", "Directory to search for config.yaml")
	uploadPath := flag.String("upload", "", "Path to an upload file to replay instead of generating synthetic orders")
	numSteps := flag.Int("steps", 10000, "Number of synthetic generator steps to run (ignored with -upload)")
	sessionID := flag.String("session", "default", "Session key the rate limiter buckets against")
	rateLimited := flag.Bool("rate-limit", false, "Gate this run behind the Redis-backed session rate limiter")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger.Info("starting matching engine", "ring_buffer_size", cfg.Engine.RingBufferSize)

	if *rateLimited {
		client := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		defer client.Close()

		bucket := ratelimit.NewTokenBucket(client, cfg.RateLimit.BucketSize, cfg.RateLimit.RefillRate)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := bucket.CheckOrError(ctx, *sessionID)
		cancel()
		if err != nil {
			logger.Error("session rejected by rate limiter", "session", *sessionID, "error", err)
			os.Exit(1)
		}
		logger.Info("session admitted by rate limiter", "session", *sessionID)
	}

	engine := matching.NewEngine()

	ringBuffer := disruptor.NewRingBuffer(disruptor.Config{BufferSize: cfg.Engine.RingBufferSize})
	sequencer := disruptor.NewSequencer(ringBuffer)
	processor := disruptor.NewEventProcessor(ringBuffer, engine, logger)
	processor.Start()

	publisher := stream.NewPublisher(cfg.Stream.PublisherBuffer)
	formatter := stream.NewFormatter(engine, cfg.Stream.TopN, cfg.Stream.SampleEvery, cfg.Stream.BestLevelsOnly)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	submit := func(idx int, cmd matching.Command) {
		responseCh := make(chan *disruptor.CommandResponse, 1)
		seq, err := sequencer.Next()
		if err != nil {
			logger.Warn("ring buffer full, dropping command", "order_id", cmd.OrderID)
			return
		}
		sequencer.Publish(seq, &disruptor.CommandRequest{Command: cmd}, responseCh)

		start := time.Now()
		select {
		case <-responseCh:
		case <-time.After(5 * time.Second):
			logger.Error("timed out waiting for command response", "order_id", cmd.OrderID)
			return
		}
		latency := time.Since(start)

		publisher.PublishAll(formatter.Sample(idx, cmd.Kind.String(), latency))
	}

	if *uploadPath != "" {
		contents, err := os.ReadFile(*uploadPath)
		if err != nil {
			logger.Error("failed to read upload file", "path", *uploadPath, "error", err)
			os.Exit(1)
		}

		result := upload.ParseFile(string(contents))
		logger.Info("replaying upload file", "total", result.Total, "parsed", result.Parsed, "invalid", result.Invalid)
	replay:
		for i, cmd := range result.Commands {
			select {
			case <-ctx.Done():
				break replay
			default:
			}
			submit(i+1, cmd)
		}
	} else {
		// The generator drives the engine directly rather than through
		// the ring buffer: it already owns a reference to the engine
		// (it needs Book() to sample cross-free prices before issuing a
		// command), so there is no producer/consumer boundary to cross
		// here. The ring buffer exists for the upload-replay path, where
		// commands genuinely arrive from outside the process.
		gen := generator.New(engine, cfg.Generator.MeanPrice, cfg.Generator.SDPrice)
		gen.Seed(cfg.Generator.SeedCount)
		logger.Info("seeded book", "orders", cfg.Generator.SeedCount)

		for i := 1; i <= *numSteps; i++ {
			select {
			case <-ctx.Done():
				goto done
			default:
			}

			gen.GenerateOrders()

			step := gen.Steps()[len(gen.Steps())-1]
			publisher.PublishAll(formatter.Sample(i, step.Action, step.Latency))
		}
	done:
	}

	publisher.Publish(formatter.Completed())
	adds, modifies, cancels := ringBuffer.KindCounts()
	logger.Info("run complete", "rebalances", engine.Rebalances(), "trades", engine.TradeCount(),
		"ring_adds", adds, "ring_modifies", modifies, "ring_cancels", cancels)

	processor.Shutdown()
	publisher.Close()
}
