// Package engine evaluates the login step-up rules as an OPA Rego policy.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"

	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/risk"
)

// ErrNoDecision is returned when the policy produced no decision object.
var ErrNoDecision = errors.New("policy: query returned no decision")

var _ risk.Evaluator = (*OPAEvaluator)(nil)

// OPAEvaluator scores logins with a compiled Rego policy. When evaluation fails it logs and
// delegates to the fallback evaluator, if one is set.
type OPAEvaluator struct {
	query    rego.PreparedEvalQuery
	fallback risk.Evaluator
	logger   *zap.Logger
}

// NewOPAEvaluator compiles policy (DefaultPolicy when empty) and prepares the decision query.
func NewOPAEvaluator(ctx context.Context, policy string, fallback risk.Evaluator, logger *zap.Logger) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"stepup.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(decisionQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy query: %w", err)
	}
	return &OPAEvaluator{query: pq, fallback: fallback, logger: logging.OrNop(logger)}, nil
}

// HealthCheck evaluates the policy against a first-login input. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, risk.DefaultConfig(), risk.Signals{})
	return err
}

// Evaluate implements risk.Evaluator.
func (e *OPAEvaluator) Evaluate(ctx context.Context, cfg risk.Config, s risk.Signals) (risk.Assessment, error) {
	a, err := e.eval(ctx, cfg, s)
	if err == nil {
		return a, nil
	}
	if e.fallback == nil {
		return risk.Assessment{}, err
	}
	e.logger.Warn("policy evaluation failed, using fallback evaluator", zap.Error(err))
	return e.fallback.Evaluate(ctx, cfg, s)
}

func (e *OPAEvaluator) eval(ctx context.Context, cfg risk.Config, s risk.Signals) (risk.Assessment, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(cfg, s)))
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return risk.Assessment{}, ErrNoDecision
	}
	decision, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return risk.Assessment{}, fmt.Errorf("policy: decision has type %T", rs[0].Expressions[0].Value)
	}
	return toAssessment(decision)
}

func buildInput(cfg risk.Config, s risk.Signals) map[string]interface{} {
	return map[string]interface{}{
		"config": map[string]interface{}{
			"threshold":                cfg.Threshold,
			"new_device_points":        cfg.NewDevicePoints,
			"new_ip_points":            cfg.NewIPPoints,
			"concurrent_device_points": cfg.ConcurrentDevicePoints,
			"concurrent_device_min":    cfg.ConcurrentDeviceMin,
			"session_count_points":     cfg.SessionCountPoints,
			"session_count_min":        cfg.SessionCountMin,
		},
		"signals": map[string]interface{}{
			"privileged":           s.Privileged,
			"prior_sessions":       s.PriorSessions,
			"new_device":           s.NewDevice,
			"new_ip":               s.NewIP,
			"same_device_sessions": s.SameDeviceSessions,
			"successful_sessions":  s.SuccessfulSessions,
		},
	}
}

func toAssessment(decision map[string]interface{}) (risk.Assessment, error) {
	var a risk.Assessment
	a.IsSuspicious, _ = decision["suspicious"].(bool)
	a.Forced, _ = decision["forced"].(bool)
	switch v := decision["risk_value"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return risk.Assessment{}, fmt.Errorf("policy: risk_value %q: %w", v, err)
		}
		a.RiskValue = int(n)
	case float64:
		a.RiskValue = int(v)
	case int64:
		a.RiskValue = int(v)
	default:
		return risk.Assessment{}, fmt.Errorf("policy: risk_value has type %T", v)
	}
	if list, ok := decision["reasons"].([]interface{}); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				a.Reasons = append(a.Reasons, s)
			}
		}
	}
	return a, nil
}
