// Package engine orchestrates gates, regime detection, signal
// combination, multi-timeframe adjustment, entry confirmation, and risk
// calculation into a single auditable recommendation per run.
package engine

import (
	"time"

	"github.com/signalmesh/advisor/internal/domain/confirm"
	"github.com/signalmesh/advisor/internal/domain/regime"
	"github.com/signalmesh/advisor/internal/domain/signal"
)

// Pipeline step names, in execution order. Blocked is terminal and
// reachable only from the gate stage.
const (
	StepGateSession    = "gate_session"
	StepGateVolatility = "gate_volatility"
	StepGateRiskLimits = "gate_risk_limits"
	StepRegimeDetect   = "regime_detect"
	StepCombine        = "combine"
	StepDampening      = "dampening"
	StepMTFAdjust      = "mtf_adjust"
	StepConfirm        = "confirm"
	StepSize           = "size"
)

// DecisionStep is one append-only audit record. Every stage that runs
// appends exactly one, in execution order; a gate veto leaves a partial
// path ending at the failing gate.
type DecisionStep struct {
	Step   string `json:"step"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Confirmation is the checklist outcome in the output contract. Required
// is the total number of conditions on the checklist; Confidence is
// Achieved / Required.
type Confirmation struct {
	Entry         bool             `json:"entry"`
	Direction     signal.Direction `json:"direction"`
	Achieved      int              `json:"achieved"`
	Required      int              `json:"required"`
	Confidence    float64          `json:"confidence"`
	Confirmations []string         `json:"confirmations"`
	Missing       []string         `json:"missing"`
	Checks        []confirm.Check  `json:"checks,omitempty"`
}

// Recommendation is the terminal artifact of one analysis run. Created
// fresh per run, never mutated after construction, owned by the caller.
// BlockedReason is set if and only if a gate vetoed the run; a Hold that
// merely fell inside the neutral band carries no BlockedReason.
type Recommendation struct {
	Asset         string           `json:"asset"`
	Direction     signal.Direction `json:"direction"`
	Score         float64          `json:"score"`
	Confidence    float64          `json:"confidence"`
	Entry         float64          `json:"entry"`
	StopLoss      float64          `json:"stopLoss"`
	TakeProfit    float64          `json:"takeProfit"`
	RiskReward    float64          `json:"riskReward"`
	PositionSize  float64          `json:"positionSize"`
	Regime        regime.Regime    `json:"regime,omitempty"`
	Signals       []signal.Signal  `json:"signals,omitempty"`
	Confirmation  Confirmation     `json:"confirmation"`
	DecisionPath  []DecisionStep   `json:"decisionPath"`
	BlockedReason string           `json:"blockedReason,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Blocked reports whether a gate vetoed the run.
func (r *Recommendation) Blocked() bool { return r.BlockedReason != "" }
