package stream

import (
	"testing"
	"time"

	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orders"
)

func TestFormatter_SamplesExecutionStatsEveryCommand(t *testing.T) {
	engine := matching.NewEngine()
	f := NewFormatter(engine, 10, 100, false)

	engine.Add(1, orders.SideBid, 100, 10000)
	msgs := f.Sample(1, "ADD", time.Millisecond)

	var foundStats bool
	for _, m := range msgs {
		if m.Kind == KindExecutionStats {
			foundStats = true
		}
	}
	if !foundStats {
		t.Fatal("expected ExecutionStats to be sampled on every command")
	}
}

func TestFormatter_PriceLevelsOnlyEverySampleEvery(t *testing.T) {
	engine := matching.NewEngine()
	f := NewFormatter(engine, 10, 100, false)

	engine.Add(1, orders.SideBid, 100, 10000)
	for idx := 1; idx <= 150; idx++ {
		msgs := f.Sample(idx, "ADD", 0)
		hasPriceLevels := false
		for _, m := range msgs {
			if m.Kind == KindPriceLevels {
				hasPriceLevels = true
			}
		}
		if idx%100 == 0 && !hasPriceLevels {
			t.Fatalf("expected a PriceLevels message at idx=%d", idx)
		}
		if idx%100 != 0 && hasPriceLevels {
			t.Fatalf("did not expect a PriceLevels message at idx=%d", idx)
		}
	}
}

func TestFormatter_TradesFlushOnlyOnce(t *testing.T) {
	engine := matching.NewEngine()
	f := NewFormatter(engine, 10, 100, false)

	engine.Add(1, orders.SideAsk, 100, 10000)
	engine.Add(2, orders.SideBid, 100, 10000)

	msgs := f.Sample(1, "ADD", 0)
	var tradeMsgs int
	for _, m := range msgs {
		if m.Kind == KindTrades {
			tradeMsgs++
			if len(m.Trades) != 1 {
				t.Fatalf("expected 1 trade in the first sample, got %d", len(m.Trades))
			}
		}
	}
	if tradeMsgs != 1 {
		t.Fatalf("expected exactly one Trades message, got %d", tradeMsgs)
	}

	// No new trades since - a second sample should carry no Trades message.
	msgs2 := f.Sample(2, "ADD", 0)
	for _, m := range msgs2 {
		if m.Kind == KindTrades {
			t.Fatal("did not expect a Trades message with nothing new to flush")
		}
	}
}

func TestFormatter_BestOnlySkipsDepth(t *testing.T) {
	engine := matching.NewEngine()
	f := NewFormatter(engine, 10, 1, true)

	engine.Add(1, orders.SideBid, 100, 10000)
	msgs := f.Sample(1, "ADD", 0)

	for _, m := range msgs {
		if m.Kind == KindPriceLevels {
			t.Fatal("bestOnly formatter should never emit a PriceLevels message")
		}
		if m.Kind == KindBestLevels && (m.BestBid == nil || m.BestBid.Volume != 100) {
			t.Fatalf("expected BestLevels to report the resting bid, got %+v", m.BestBid)
		}
	}
}

func TestPublisher_NonBlockingDropsOnFullBuffer(t *testing.T) {
	p := NewPublisher(1)
	defer p.Close()

	ch := p.Subscribe()

	p.Publish(Message{Kind: KindCompleted})
	p.Publish(Message{Kind: KindCompleted}) // buffer full, must not block

	select {
	case <-ch:
	default:
		t.Fatal("expected at least the first message to be delivered")
	}
}
