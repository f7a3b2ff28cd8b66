package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/signalmesh/advisor/internal/config"
	"github.com/signalmesh/advisor/internal/domain/confirm"
	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/domain/mtf"
	"github.com/signalmesh/advisor/internal/domain/regime"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/gates"
	"github.com/signalmesh/advisor/internal/risktrack"
)

// Deps are the collaborators an engine orchestrates. All of them are
// interfaces except the shared risk tracker, whose counters must be the
// same instance across concurrent runs.
type Deps struct {
	Contexts   ContextProvider
	Trends     TrendProvider
	Indicators IndicatorProvider
	Portfolio  PortfolioProvider
	Signals    SignalCollector
	Tracker    *risktrack.Tracker
	Logger     zerolog.Logger
}

// Engine runs the decision pipeline. It is stateless across runs except
// for the shared risk tracker; concurrent Analyze calls are safe.
type Engine struct {
	cfg   *config.Config
	deps  Deps
	sizer risk.Sizer
	eval  *confirm.Evaluator
	chain *gates.Chain
	log   zerolog.Logger

	now func() time.Time
}

// New builds an engine. The sizing strategy is resolved here so a
// misconfigured strategy fails at startup, not mid-run.
func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sizer, err := risk.NewSizer(cfg.Risk.Sizing)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:   cfg,
		deps:  deps,
		sizer: sizer,
		eval:  confirm.NewEvaluator(cfg.Confirmation),
		chain: gates.NewChain(
			gates.NewSessionGate(cfg.Gates.Avoidance),
			gates.NewVolatilityGate(cfg.Gates.MaxVIX),
			gates.NewRiskLimitGate(deps.Tracker),
		),
		log: deps.Logger.With().Str("component", "engine").Logger(),
		now: time.Now,
	}, nil
}

// inputs is everything gathered before the gates run.
type inputs struct {
	mctx      market.Context
	trends    []mtf.TimeframeTrend
	ind       Indicators
	portfolio PortfolioState
	signals   []signal.Signal
}

// Analyze runs the full pipeline for one asset and returns a fresh
// recommendation. Gate vetoes, degenerate signal sets, and unmet
// confirmations are normal Hold outcomes; only configuration problems
// and upstream data failures surface as errors. The run may be cancelled
// while inputs are being gathered; once the gates pass it completes
// synchronously so the audit trail is never partial.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Recommendation, error) {
	in, err := e.gather(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := &Recommendation{
		Asset:     req.Asset,
		Direction: signal.Hold,
		Signals:   in.signals,
		Timestamp: e.now(),
	}

	// Gate check. First veto terminates the run with a partial path.
	allowed, reason, outcomes := e.chain.Evaluate(in.mctx)
	for _, o := range outcomes {
		rec.DecisionPath = append(rec.DecisionPath, DecisionStep{
			Step:   "gate_" + o.Gate,
			Passed: o.Allowed,
			Detail: gateDetail(o),
		})
	}
	if !allowed {
		rec.BlockedReason = reason
		e.log.Info().Str("asset", req.Asset).Str("reason", reason).Msg("run blocked by gate")
		return rec, nil
	}

	// Regime detection and weight adjustment.
	reg := regime.Detect(in.mctx.VIX, in.ind.ADX, in.mctx.NewsWithinWindow, e.cfg.Regime.Thresholds)
	rec.Regime = reg
	rec.DecisionPath = append(rec.DecisionPath, DecisionStep{
		Step: StepRegimeDetect, Passed: true,
		Detail: fmt.Sprintf("regime %s: %s", reg, regime.Describe(reg)),
	})

	adjusted := regime.AdjustWeights(e.cfg.WeightTable(), reg, e.cfg.MultiplierTable())
	weighted := regime.Apply(in.signals, adjusted)
	rec.Signals = weighted

	// Combination.
	combined := signal.Combine(weighted, trendDirections(in.trends), e.cfg.CombineConfig())
	rec.DecisionPath = append(rec.DecisionPath, DecisionStep{
		Step: StepCombine, Passed: !combined.Degenerate,
		Detail: combineDetail(combined),
	})
	if combined.Dampened {
		rec.DecisionPath = append(rec.DecisionPath, DecisionStep{
			Step: StepDampening, Passed: true, Detail: combined.DampenDetail,
		})
	}

	// Multi-timeframe adjustment.
	mod := mtf.Classify(in.trends, combined.Action)
	score := combined.Score * mod.Multiplier
	action := signal.ActionForScore(score, e.cfg.Engine.BuyThreshold)
	if combined.Degenerate {
		score, action = 0, signal.Hold
	}
	rec.Score = score
	rec.DecisionPath = append(rec.DecisionPath, DecisionStep{
		Step: StepMTFAdjust, Passed: action != signal.Hold,
		Detail: fmt.Sprintf("%s; score %.4f -> %.4f, action %s", mod.Detail(), combined.Score, score, action),
	})

	// Entry confirmation.
	state := e.confirmState(in)
	result := e.eval.Evaluate(action, state)
	rec.Confirmation = toConfirmation(result)
	rec.DecisionPath = append(rec.DecisionPath, DecisionStep{
		Step: StepConfirm, Passed: result.Confirmed,
		Detail: confirmDetail(action, result),
	})

	if action == signal.Hold || !result.Confirmed {
		rec.Direction = signal.Hold
		rec.Confidence = e.confidence(score, mod, result)
		return rec, nil
	}

	// Risk calculation. Failures here are configuration errors and
	// surface to the caller rather than degrading into a Hold.
	stop, err := e.cfg.StopConfig(req.Market)
	if err != nil {
		return nil, err
	}
	levels, err := risk.ComputeLevels(in.ind.Price, in.ind.ATR, action, stop)
	if err != nil {
		return nil, err
	}
	size, err := e.sizer.Size(risk.SizingInput{
		Capital: in.portfolio.Capital,
		ATR:     in.ind.ATR,
		Price:   in.ind.Price,
		WinRate: in.portfolio.WinRate,
		AvgWin:  in.portfolio.AvgWin,
		AvgLoss: in.portfolio.AvgLoss,
	})
	if err != nil {
		return nil, err
	}

	rec.Direction = action
	rec.Entry = levels.Entry
	rec.StopLoss = levels.StopLoss
	rec.TakeProfit = levels.TakeProfit
	rec.RiskReward = levels.RiskReward
	rec.PositionSize = size
	rec.Confidence = e.confidence(score, mod, result)
	rec.DecisionPath = append(rec.DecisionPath, DecisionStep{
		Step: StepSize, Passed: true,
		Detail: fmt.Sprintf("%s sizing: %.2f at entry %.5f, SL %.5f, TP %.5f, RR %.1f",
			e.sizer.Name(), size, levels.Entry, levels.StopLoss, levels.TakeProfit, levels.RiskReward),
	})

	e.log.Info().
		Str("asset", req.Asset).
		Str("direction", string(rec.Direction)).
		Float64("score", rec.Score).
		Float64("confidence", rec.Confidence).
		Msg("recommendation")
	return rec, nil
}

// gather fans out to every provider concurrently and waits for all of
// them. No partial-result combination: one failed provider fails the run.
// Signal-source failures are not errors; they arrive as unavailable
// signals from the collector.
func (e *Engine) gather(ctx context.Context, req Request) (*inputs, error) {
	in := &inputs{}
	errs := make([]error, 4)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		var err error
		if in.mctx, err = e.deps.Contexts.MarketContext(ctx, req.Market); err != nil {
			errs[0] = fmt.Errorf("market context: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if in.trends, err = e.deps.Trends.Trends(ctx, req.Asset); err != nil {
			errs[1] = fmt.Errorf("timeframe trends: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if in.ind, err = e.deps.Indicators.Indicators(ctx, req.Asset); err != nil {
			errs[2] = fmt.Errorf("indicators: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if in.portfolio, err = e.deps.Portfolio.Portfolio(ctx); err != nil {
			errs[3] = fmt.Errorf("portfolio: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		in.signals = e.deps.Signals.Collect(ctx, req.Asset)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return in, nil
}

// confirmState assembles the checklist snapshot from the gathered inputs.
// Sentiment is the confidence-weighted mean of available sentiment
// signals; missing sentiment reads as neutral.
func (e *Engine) confirmState(in *inputs) confirm.State {
	st := confirm.State{
		Price:     in.ind.Price,
		VWAP:      in.ind.VWAP,
		RSI:       in.ind.RSI,
		ADX:       in.ind.ADX,
		SessionOK: len(in.mctx.ActiveSessions) > 0,
	}

	var sum, conf float64
	for _, s := range in.signals {
		if s.Unavailable || s.Category != signal.CategorySentiment {
			continue
		}
		sum += s.Score * s.Confidence
		conf += s.Confidence
	}
	if conf > 0 {
		st.Sentiment = sum / conf
	}

	for _, t := range in.trends {
		switch t.Timeframe {
		case mtf.TF1H:
			st.Trend1H = t.Direction
		case mtf.TF4H:
			st.Trend4H = t.Direction
		}
	}
	return st
}

// confidence blends the three confidence factors into the final figure:
// signal strength 40%, checklist share 40%, timeframe alignment 20%.
func (e *Engine) confidence(score float64, mod mtf.Modifier, result confirm.Result) float64 {
	strength := math.Min(math.Abs(score), 1.0)
	return strength*0.4 + result.Confidence*0.4 + mod.Confidence*0.2
}

func toConfirmation(r confirm.Result) Confirmation {
	return Confirmation{
		Entry:         r.Confirmed,
		Direction:     r.Direction,
		Achieved:      r.Achieved,
		Required:      r.Total,
		Confidence:    r.Confidence,
		Confirmations: r.Confirmations(),
		Missing:       r.Missing(),
		Checks:        r.Checks,
	}
}

func gateDetail(o gates.Outcome) string {
	if o.Allowed {
		return fmt.Sprintf("%s gate passed", o.Gate)
	}
	return o.Reason
}

func combineDetail(c signal.Combined) string {
	if c.Degenerate {
		return "zero total signal weight, action forced to HOLD"
	}
	return fmt.Sprintf("weighted score %.4f over %d signals (weight %.3f), %d unavailable",
		c.RawScore, len(c.Contributions), c.TotalWeight, len(c.Unavailable))
}

func confirmDetail(action signal.Direction, r confirm.Result) string {
	if action == signal.Hold {
		return "no directional candidate, checklist skipped"
	}
	if r.Confirmed {
		return fmt.Sprintf("%s entry confirmed, %d/%d conditions met", action, r.Achieved, r.Total)
	}
	return fmt.Sprintf("%s entry not confirmed, %d/%d conditions met, missing %v",
		action, r.Achieved, r.Total, r.Missing())
}

func trendDirections(trends []mtf.TimeframeTrend) []signal.Direction {
	out := make([]signal.Direction, len(trends))
	for i, t := range trends {
		out[i] = mtf.DirectionFor(t.Direction)
	}
	return out
}
