package generator

import (
	"testing"
	"time"

	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orders"
)

func TestGenerator_SeedPopulatesBookWithoutCrosses(t *testing.T) {
	engine := matching.NewEngine()
	gen := New(engine, 100.0, 5.0)
	gen.Seed(500)

	if engine.Book().LiveOrderCount() == 0 {
		t.Fatal("expected Seed to populate the book")
	}

	bid, hasBid := engine.Book().HighestBid()
	ask, hasAsk := engine.Book().LowestAsk()
	if hasBid && hasAsk && bid >= ask {
		t.Fatalf("expected a crossed-free seeded book, got bid=%d ask=%d", bid, ask)
	}
}

func TestGenerator_GenerateOrdersRecordsSteps(t *testing.T) {
	engine := matching.NewEngine()
	gen := New(engine, 100.0, 5.0)
	gen.Seed(200)

	for i := 0; i < 50; i++ {
		gen.GenerateOrders()
	}

	steps := gen.Steps()
	if len(steps) != 50 {
		t.Fatalf("expected 50 recorded steps, got %d", len(steps))
	}
	for _, s := range steps {
		if s.Action == "" {
			t.Fatal("expected every step to record an action")
		}
	}
}

func TestGenerator_ActionProbabilitiesFavorChurnOverAdd(t *testing.T) {
	engine := matching.NewEngine()
	gen := New(engine, 100.0, 5.0)
	gen.Seed(20000) // above randomLiveIDThreshold so cancel/modify can actually run

	for i := 0; i < 500; i++ {
		gen.GenerateOrders()
	}

	var adds int
	for _, s := range gen.Steps() {
		if s.Action == "ADD" {
			adds++
		}
	}

	// ADD has cumulative threshold 0.0 - it should be selected rarely, if
	// ever, compared to CANCEL/MODIFY once the book is well above the
	// random-selection threshold.
	if adds > len(gen.Steps())/2 {
		t.Fatalf("expected ADD to be rare once live orders exceed the random-selection threshold, got %d/%d", adds, len(gen.Steps()))
	}
}

func TestGenerator_ModifyAskWithNoRestingBidsTerminates(t *testing.T) {
	engine := matching.NewEngine()
	gen := New(engine, 100.0, 5.0)

	// Only asks rest in the book - more of them than the 10,000-order
	// random-selection threshold, so createModifyLimit picks a live ask
	// instead of falling back to an add. HighestBid() reports !ok, so the
	// ask-side rejection loop must skip its "!hasBid ||" clause instead
	// of spinning forever comparing against a phantom zero-valued bid.
	for id := uint64(1); id <= 10_001; id++ {
		engine.Add(id, orders.SideAsk, 10, 10500)
	}

	done := make(chan struct{})
	go func() {
		gen.createModifyLimit()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("createModifyLimit did not terminate without a resting bid to compare against")
	}
}
