// Package stream is the Stream Formatter: it turns engine state and
// per-command Stats Collector output into the outbound update protocol
// a session consumes, and fans those updates out to subscribers over
// buffered, non-blocking channels.
//
// Message taxonomy (mirrors the original ServerMessage enum):
//   - PriceLevels: a depth snapshot, sampled periodically rather than
//     every command (cheap enough to poll, too chatty to push on every
//     update).
//   - BestLevels: just the book-edge quote, used when a session asked
//     for best-price-levels-only rather than full depth.
//   - ExecutionStats: the Stats Collector snapshot for the command that
//     was just processed (rebalance count, trade count, latency).
//   - Trades: newly executed trades since the last read, fetched via
//     the engine's offset contract so nothing is ever resent or lost.
//   - Completed / RateLimitExceeded: session lifecycle signals.
package stream

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rishav/order-matching-engine/internal/apperr"
	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orderbook"
	"github.com/rishav/order-matching-engine/internal/orders"
	"github.com/rishav/order-matching-engine/internal/price"
)

// Kind identifies the payload carried by a Message.
type Kind uint8

const (
	KindPriceLevels Kind = iota + 1
	KindBestLevels
	KindExecutionStats
	KindTrades
	KindCompleted
	KindRateLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindPriceLevels:
		return "PRICE_LEVELS"
	case KindBestLevels:
		return "BEST_LEVELS"
	case KindExecutionStats:
		return "EXECUTION_STATS"
	case KindTrades:
		return "TRADES"
	case KindCompleted:
		return "COMPLETED"
	case KindRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// LevelQuote is one sampled price level, rendered at the decimal
// boundary.
type LevelQuote struct {
	Price  decimal.Decimal
	Volume uint64
}

// ExecutionStats is the Stats Collector snapshot for a single command.
type ExecutionStats struct {
	CommandKind string
	Latency     time.Duration
	Rebalances  uint64
	TradesCount int
}

// TradeReport is one executed trade, rendered at the decimal boundary.
type TradeReport struct {
	Price       decimal.Decimal
	Volume      uint64
	AggressorID uint64
	PassiveID   uint64
	Timestamp   int64
}

// Message is one outbound update. Only the field matching Kind is
// populated.
type Message struct {
	Kind Kind

	Bids []LevelQuote
	Asks []LevelQuote

	BestBid *LevelQuote
	BestAsk *LevelQuote

	Stats ExecutionStats

	Trades []TradeReport
}

func quote(pv orderbook.PriceVolume) LevelQuote {
	return LevelQuote{Price: price.FromCents(pv.Price), Volume: pv.Volume}
}

// Formatter samples an engine's book and trade log into outbound
// Messages. It is not itself a transport - Publisher (below) does the
// channel fan-out; Formatter only decides what to sample and when.
type Formatter struct {
	engine *matching.Engine

	topN        int  // depth sampled per PriceLevels message
	sampleEvery int  // PriceLevels is sampled every Nth command
	bestOnly    bool // best_price_levels toggle: skip depth, sample cursor only

	tradeOffset int
}

// NewFormatter creates a Formatter over engine. topN and sampleEvery
// default to 10 and 100 respectively (0 means "use default") matching
// the source's every-100th-command depth sampling cadence; bestOnly
// corresponds to a session's show_best_price_levels request.
func NewFormatter(engine *matching.Engine, topN int, sampleEvery int, bestOnly bool) *Formatter {
	if topN <= 0 {
		topN = 10
	}
	if sampleEvery <= 0 {
		sampleEvery = 100
	}
	return &Formatter{engine: engine, topN: topN, sampleEvery: sampleEvery, bestOnly: bestOnly}
}

// Sample produces the messages due after processing the idx'th command
// of kind cmdKind, which took latency to process. ExecutionStats and
// (when new trades exist) Trades are produced on every call;
// PriceLevels/BestLevels are only produced every sampleEvery commands,
// per the source's idx % 100 == 0 depth-sampling cadence.
func (f *Formatter) Sample(idx int, cmdKind string, latency time.Duration) []Message {
	var out []Message

	stats := f.engine.LastStats()
	out = append(out, Message{
		Kind: KindExecutionStats,
		Stats: ExecutionStats{
			CommandKind: cmdKind,
			Latency:     latency,
			Rebalances:  stats.Rebalances,
			TradesCount: stats.Trades,
		},
	})

	if trades, next := f.engine.ReadNewTrades(f.tradeOffset); len(trades) > 0 {
		f.tradeOffset = next
		out = append(out, Message{Kind: KindTrades, Trades: renderTrades(trades)})
	}

	if idx%f.sampleEvery == 0 {
		book := f.engine.Book()
		if f.bestOnly {
			out = append(out, Message{Kind: KindBestLevels, BestBid: bestQuote(book, orders.SideBid), BestAsk: bestQuote(book, orders.SideAsk)})
		} else {
			bidPVs := book.TopN(orders.SideBid, f.topN)
			askPVs := book.TopN(orders.SideAsk, f.topN)
			bids := make([]LevelQuote, len(bidPVs))
			for i, pv := range bidPVs {
				bids[i] = quote(pv)
			}
			asks := make([]LevelQuote, len(askPVs))
			for i, pv := range askPVs {
				asks[i] = quote(pv)
			}
			out = append(out, Message{Kind: KindPriceLevels, Bids: bids, Asks: asks})
		}
	}

	return out
}

// Completed returns the session-lifecycle message sent once a
// generator run or file replay has processed its last command.
func (f *Formatter) Completed() Message {
	return Message{Kind: KindCompleted}
}

// RateLimitExceeded returns the message sent (immediately before the
// session is closed) when a caller trips the token-bucket limiter.
func RateLimitExceeded(err *apperr.Error) Message {
	return Message{Kind: KindRateLimitExceeded}
}

func bestQuote(book *orderbook.Book, side orders.Side) *LevelQuote {
	lvl := book.BestLevel(side)
	if lvl == nil {
		return nil
	}
	return &LevelQuote{Price: price.FromCents(lvl.Price), Volume: lvl.AggVolume}
}

func renderTrades(trades []orders.Trade) []TradeReport {
	reports := make([]TradeReport, len(trades))
	for i, t := range trades {
		reports[i] = TradeReport{
			Price:       price.FromCents(t.Price),
			Volume:      t.Volume,
			AggressorID: t.AggressorID,
			PassiveID:   t.PassiveID,
			Timestamp:   t.Timestamp,
		}
	}
	return reports
}

// Publisher fans Messages out to subscribers over buffered channels.
// Sends are non-blocking: a slow subscriber drops updates rather than
// stalling the single-threaded command loop.
type Publisher struct {
	mu         sync.RWMutex
	subs       []chan Message
	bufferSize int
}

// NewPublisher creates a Publisher whose subscriber channels are
// buffered to bufferSize (100 if <= 0).
func NewPublisher(bufferSize int) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Publisher{bufferSize: bufferSize}
}

// Subscribe returns a channel that receives every message published
// from this point on.
func (p *Publisher) Subscribe() <-chan Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Message, p.bufferSize)
	p.subs = append(p.subs, ch)
	return ch
}

// Publish sends msg to every current subscriber, dropping it for any
// subscriber whose buffer is full.
func (p *Publisher) Publish(msg Message) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// PublishAll publishes every message in msgs, in order.
func (p *Publisher) PublishAll(msgs []Message) {
	for _, msg := range msgs {
		p.Publish(msg)
	}
}

// Close closes every subscriber channel.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
}
