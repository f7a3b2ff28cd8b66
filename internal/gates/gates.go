// Package gates implements the hard veto stages that run before any
// signal combination. Gates are stateless predicates over the market
// context, evaluated in fixed order with short-circuit semantics: the
// first failing gate halts the pipeline.
package gates

import (
	"fmt"

	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/risktrack"
)

// Gate is a binary veto stage. Evaluate returns whether trading may
// proceed and, when it may not, a human-readable reason.
type Gate interface {
	Name() string
	Evaluate(ctx market.Context) (bool, string)
}

// Outcome records one gate's evaluation for the audit trail.
type Outcome struct {
	Gate    string
	Allowed bool
	Reason  string
}

// Chain evaluates gates in order and stops at the first veto.
type Chain struct {
	gates []Gate
}

// NewChain builds a chain preserving gate order.
func NewChain(gates ...Gate) *Chain {
	return &Chain{gates: gates}
}

// Evaluate runs the chain. It returns whether all gates passed, the
// blocking reason (empty when allowed), and the outcomes of every gate
// that was evaluated, in order.
func (c *Chain) Evaluate(ctx market.Context) (bool, string, []Outcome) {
	outcomes := make([]Outcome, 0, len(c.gates))
	for _, g := range c.gates {
		allowed, reason := g.Evaluate(ctx)
		outcomes = append(outcomes, Outcome{Gate: g.Name(), Allowed: allowed, Reason: reason})
		if !allowed {
			return false, reason, outcomes
		}
	}
	return true, "", outcomes
}

// SessionGate vetoes when no trading session is active or the context
// falls inside an avoidance window.
type SessionGate struct {
	avoid market.Avoidance
}

// NewSessionGate creates a session gate with the given avoidance windows.
func NewSessionGate(avoid market.Avoidance) *SessionGate {
	return &SessionGate{avoid: avoid}
}

func (g *SessionGate) Name() string { return "session" }

func (g *SessionGate) Evaluate(ctx market.Context) (bool, string) {
	if len(ctx.ActiveSessions) == 0 {
		return false, "outside trading sessions"
	}
	if avoid, reason := g.avoid.ShouldAvoid(ctx); avoid {
		return false, reason
	}
	return true, ""
}

// VolatilityGate vetoes unconditionally when VIX exceeds the maximum. No
// signal strength overrides this gate.
type VolatilityGate struct {
	MaxVIX float64
}

// NewVolatilityGate creates a volatility gate with the given ceiling.
func NewVolatilityGate(maxVIX float64) *VolatilityGate {
	return &VolatilityGate{MaxVIX: maxVIX}
}

func (g *VolatilityGate) Name() string { return "volatility" }

func (g *VolatilityGate) Evaluate(ctx market.Context) (bool, string) {
	if ctx.VIX > g.MaxVIX {
		return false, fmt.Sprintf("VIX above threshold (%.1f > %.1f)", ctx.VIX, g.MaxVIX)
	}
	return true, ""
}

// RiskLimitGate vetoes when the process-wide risk counters forbid a new
// entry. Built per run from a tracker so the gate itself stays stateless.
type RiskLimitGate struct {
	tracker *risktrack.Tracker
}

// NewRiskLimitGate creates a risk-limit gate over the shared tracker.
func NewRiskLimitGate(tracker *risktrack.Tracker) *RiskLimitGate {
	return &RiskLimitGate{tracker: tracker}
}

func (g *RiskLimitGate) Name() string { return "risk_limits" }

func (g *RiskLimitGate) Evaluate(market.Context) (bool, string) {
	ok, reason := g.tracker.CanTrade()
	if !ok {
		return false, fmt.Sprintf("risk limits: %s", reason)
	}
	return true, ""
}
