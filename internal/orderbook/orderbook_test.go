package orderbook

import (
	"testing"

	"github.com/rishav/order-matching-engine/internal/orders"
)

func TestBook_EnsureLevelAndAppend(t *testing.T) {
	b := NewBook()

	level := b.EnsureLevel(orders.SideBid, 10000)
	b.AppendOrder(level, &orders.Order{ID: 1, Side: orders.SideBid, Shares: 100, Price: 10000})

	if !b.Contains(1) {
		t.Fatal("expected order 1 to be live")
	}
	if got, ok := b.HighestBid(); !ok || got != 10000 {
		t.Fatalf("expected highest bid 10000, got %d (ok=%v)", got, ok)
	}
}

func TestBook_BookEdgeCursorSurvivesDeletes(t *testing.T) {
	b := NewBook()

	for _, price := range []int64{10000, 10100, 10200, 9900, 9800} {
		level := b.EnsureLevel(orders.SideBid, price)
		b.AppendOrder(level, &orders.Order{ID: uint64(price), Side: orders.SideBid, Shares: 10, Price: price})
	}

	if got, _ := b.HighestBid(); got != 10200 {
		t.Fatalf("expected highest bid 10200, got %d", got)
	}

	b.RemoveOrder(10200)
	if got, _ := b.HighestBid(); got != 10100 {
		t.Fatalf("expected highest bid to fall back to 10100 after removing the top level, got %d", got)
	}

	b.RemoveOrder(10100)
	b.RemoveOrder(10000)
	b.RemoveOrder(9900)
	b.RemoveOrder(9800)

	if _, ok := b.HighestBid(); ok {
		t.Fatal("expected no highest bid once every level is removed")
	}
}

func TestBook_FIFOWithinLevel(t *testing.T) {
	b := NewBook()
	level := b.EnsureLevel(orders.SideAsk, 5000)

	b.AppendOrder(level, &orders.Order{ID: 1, Side: orders.SideAsk, Shares: 10, Price: 5000})
	b.AppendOrder(level, &orders.Order{ID: 2, Side: orders.SideAsk, Shares: 20, Price: 5000})
	b.AppendOrder(level, &orders.Order{ID: 3, Side: orders.SideAsk, Shares: 30, Price: 5000})

	head := b.PopLevelHead(level)
	if head == nil || head.ID != 1 {
		t.Fatalf("expected first popped order to be id 1, got %v", head)
	}

	head = b.PopLevelHead(level)
	if head == nil || head.ID != 2 {
		t.Fatalf("expected second popped order to be id 2, got %v", head)
	}
}

func TestBook_EmptyLevelRemovedFromTree(t *testing.T) {
	b := NewBook()
	level := b.EnsureLevel(orders.SideAsk, 5000)
	b.AppendOrder(level, &orders.Order{ID: 1, Side: orders.SideAsk, Shares: 10, Price: 5000})

	if b.AskLevels() != 1 {
		t.Fatalf("expected 1 ask level, got %d", b.AskLevels())
	}

	b.RemoveOrder(1)

	if b.AskLevels() != 0 {
		t.Fatalf("expected the level to be removed once it emptied out, got %d levels", b.AskLevels())
	}
	if _, ok := b.LowestAsk(); ok {
		t.Fatal("expected no lowest ask once the book is empty")
	}
}

func TestBook_TopNOrdering(t *testing.T) {
	b := NewBook()
	for _, price := range []int64{10200, 10000, 10100} {
		level := b.EnsureLevel(orders.SideBid, price)
		b.AppendOrder(level, &orders.Order{ID: uint64(price), Side: orders.SideBid, Shares: 1, Price: price})
	}

	top := b.TopN(orders.SideBid, 10)
	if len(top) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(top))
	}
	want := []int64{10200, 10100, 10000}
	for i, pv := range top {
		if pv.Price != want[i] {
			t.Fatalf("expected bids best-first %v, got prices %v", want, top)
		}
	}
}

func TestBook_RandomLiveOrderIDBelowThreshold(t *testing.T) {
	b := NewBook()
	level := b.EnsureLevel(orders.SideBid, 10000)
	for i := uint64(1); i <= 5; i++ {
		b.AppendOrder(level, &orders.Order{ID: i, Side: orders.SideBid, Shares: 1, Price: 10000})
	}

	if _, ok := b.RandomLiveOrderID(); ok {
		t.Fatal("expected no random order id below randomLiveIDThreshold")
	}
}

func TestAVLTree_RebalancesOnSortedInsertion(t *testing.T) {
	tree := NewAVLTree(false)
	var rebalances uint64

	for _, price := range []int64{1, 2, 3, 4, 5, 6, 7} {
		tree.Insert(NewPriceLevel(price, orders.SideAsk), &rebalances)
	}

	if rebalances == 0 {
		t.Fatal("expected sorted insertion to trigger at least one rebalance")
	}

	// Height of a balanced 7-node tree is 3; an unbalanced insertion-order
	// chain would instead produce height 7.
	if h := tree.Height(); h > 3 {
		t.Fatalf("expected a balanced tree of height <= 3 after rebalancing, got %d", h)
	}
}

func TestAVLTree_MinMaxCacheConsistency(t *testing.T) {
	tree := NewAVLTree(false)
	var rebalances uint64

	prices := []int64{50, 30, 70, 20, 40, 60, 80, 10}
	for _, p := range prices {
		tree.Insert(NewPriceLevel(p, orders.SideAsk), &rebalances)
	}

	if tree.Min().Price != 10 {
		t.Fatalf("expected ascending tree min 10, got %d", tree.Min().Price)
	}

	tree.Delete(10, &rebalances)
	if tree.Min().Price != 20 {
		t.Fatalf("expected min to advance to 20 after deleting 10, got %d", tree.Min().Price)
	}
}
