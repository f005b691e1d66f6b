// Package generator is the synthetic Order Generator (OG): it seeds a
// fresh book with an initial population of resting orders, then drives
// the book forward by repeatedly sampling one of add/cancel/modify and
// feeding it to the matching engine, recording a latency/rebalance/
// trade-count stat for every step.
package generator

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orders"
)

// action identifies which operation a sampled step performs.
type action int

const (
	actionAdd action = iota
	actionCancel
	actionModify
)

func (a action) String() string {
	switch a {
	case actionAdd:
		return "ADD"
	case actionCancel:
		return "CANCEL"
	case actionModify:
		return "MODIFY"
	default:
		return "UNKNOWN"
	}
}

// actionProbs are the per-action probabilities in [ADD, CANCEL, MODIFY]
// order. They are deliberately NOT uniform: ADD is given essentially no
// mass once generation starts, because Seed already populated the book
// - from that point on the generator mostly churns existing orders.
// This mirrors the source's action_probs = [0.0, 0.4, 0.6] exactly,
// cumulative thresholds and all.
var actionProbs = [3]float64{0.0, 0.4, 0.6}

// Stats is one recorded generator step: which action ran, how long it
// took, and the Stats Collector snapshot the engine reported for it.
type Stats struct {
	Action     string
	Latency    time.Duration
	Rebalances uint64
	Trades     int
}

// Generator drives a matching.Engine with synthetic add/cancel/modify
// commands sampled from configurable price/quantity/side distributions.
type Generator struct {
	engine *matching.Engine

	meanPrice float64
	sdPrice   float64

	priceDist  distuv.Normal
	qtyDist    distuv.Uniform
	sideDist   distuv.Bernoulli
	actionDist distuv.Uniform

	cumulativeThresholds [3]float64

	nextOrderID uint64
	steps       []Stats
}

// New creates a Generator over engine with prices centered at meanPrice
// with standard deviation sdPrice, and quantities uniform in [1, 1000).
// A nil engine.Book is assumed empty; call Seed before GenerateOrders.
func New(engine *matching.Engine, meanPrice, sdPrice float64) *Generator {
	g := &Generator{
		engine:      engine,
		meanPrice:   meanPrice,
		sdPrice:     sdPrice,
		priceDist:   distuv.Normal{Mu: meanPrice, Sigma: sdPrice},
		qtyDist:     distuv.Uniform{Min: 1, Max: 1000},
		sideDist:    distuv.Bernoulli{P: 0.5},
		actionDist:  distuv.Uniform{Min: 0, Max: 1},
		nextOrderID: 1,
	}

	acc := 0.0
	for i, p := range actionProbs {
		acc += p
		g.cumulativeThresholds[i] = acc
	}

	return g
}

// Steps returns every recorded generator step so far.
func (g *Generator) Steps() []Stats {
	return g.steps
}

func roundToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

func (g *Generator) sampleShares() uint64 {
	return uint64(g.qtyDist.Rand())
}

// Seed populates the book with n ADD orders before any add/cancel/
// modify sampling begins. Every price is drawn from the same Normal
// distribution used for subsequent generation; an order is placed as a
// bid if its price is below the mean, an ask otherwise, guaranteeing
// the seeded book starts with no crossed orders.
func (g *Generator) Seed(n int) {
	for i := 1; i <= n; i++ {
		shares := g.sampleShares()
		limitPrice := g.priceDist.Rand()
		side := orders.SideAsk
		if limitPrice < g.meanPrice {
			side = orders.SideBid
		}
		g.engine.Add(uint64(i), side, shares, roundToCents(limitPrice))
	}
	g.nextOrderID = uint64(n) + 1
}

// GenerateOrders samples one action (ADD, CANCEL, or MODIFY) per the
// cumulative action-probability thresholds and executes it against the
// engine, recording a Stats entry.
func (g *Generator) GenerateOrders() {
	rnd := g.actionDist.Rand()

	act := actionModify
	for i, threshold := range g.cumulativeThresholds {
		if rnd <= threshold {
			act = action(i)
			break
		}
	}

	switch act {
	case actionAdd:
		g.createAddLimit()
	case actionCancel:
		g.createCancelLimit()
	case actionModify:
		g.createModifyLimit()
	}
}

func (g *Generator) createAddLimit() {
	shares := g.sampleShares()
	isBid := g.sideDist.Rand() == 1

	var side orders.Side
	var price float64

	if isBid {
		side = orders.SideBid
		lowestAsk, ok := g.engine.Book().LowestAsk()
		lowestAskF := float64(lowestAsk) / 100
		for {
			price = g.priceDist.Rand()
			if !ok || price < lowestAskF {
				break
			}
		}
	} else {
		side = orders.SideAsk
		highestBid, ok := g.engine.Book().HighestBid()
		highestBidF := float64(highestBid) / 100
		for {
			price = g.priceDist.Rand()
			if !ok || price > highestBidF {
				break
			}
		}
	}

	id := g.nextOrderID
	g.nextOrderID++

	start := time.Now()
	g.engine.Add(id, side, shares, roundToCents(price))
	g.record(actionAdd, time.Since(start))
}

func (g *Generator) createCancelLimit() {
	id, ok := g.engine.Book().RandomLiveOrderID()
	if !ok {
		g.createAddLimit()
		return
	}

	start := time.Now()
	g.engine.Cancel(id)
	g.record(actionCancel, time.Since(start))
}

func (g *Generator) createModifyLimit() {
	id, ok := g.engine.Book().RandomLiveOrderID()
	if !ok {
		g.createAddLimit()
		return
	}

	order, ok := g.engine.Book().GetOrder(id)
	if !ok {
		g.createAddLimit()
		return
	}

	highestBid, hasBid := g.engine.Book().HighestBid()
	highestBidF := float64(highestBid) / 100
	priceDist := distuv.Normal{Mu: highestBidF, Sigma: g.sdPrice}

	shares := g.sampleShares()
	var price float64

	switch order.Side {
	case orders.SideBid:
		lowestAsk, ok := g.engine.Book().LowestAsk()
		lowestAskF := float64(lowestAsk) / 100
		for {
			price = priceDist.Rand()
			if !ok || price < lowestAskF {
				break
			}
		}
	case orders.SideAsk:
		for {
			price = priceDist.Rand()
			if !hasBid || price > highestBidF {
				break
			}
		}
	}

	start := time.Now()
	g.engine.Modify(id, shares, roundToCents(price))
	g.record(actionModify, time.Since(start))
}

func (g *Generator) record(act action, latency time.Duration) {
	stats := g.engine.LastStats()
	g.steps = append(g.steps, Stats{
		Action:     act.String(),
		Latency:    latency,
		Rebalances: stats.Rebalances,
		Trades:     stats.Trades,
	})
}
