package risk

import "context"

// Builtin is the in-process scorer. It is the default Evaluator.
type Builtin struct{}

// Evaluate applies the overrides, then accumulates points. RiskValue is always the point sum,
// also when an override already forced step-up.
func (Builtin) Evaluate(_ context.Context, cfg Config, s Signals) (Assessment, error) {
	var a Assessment
	if s.Privileged {
		a.Forced = true
		a.Reasons = append(a.Reasons, ReasonPrivilegedRole)
	}
	if s.PriorSessions == 0 {
		a.Forced = true
		a.Reasons = append(a.Reasons, ReasonFirstLogin)
	}
	if s.NewDevice {
		a.RiskValue += cfg.NewDevicePoints
		a.Reasons = append(a.Reasons, ReasonNewDevice)
	}
	if s.NewIP {
		a.RiskValue += cfg.NewIPPoints
		a.Reasons = append(a.Reasons, ReasonNewIP)
	}
	if s.SameDeviceSessions >= cfg.ConcurrentDeviceMin {
		a.RiskValue += cfg.ConcurrentDevicePoints
		a.Reasons = append(a.Reasons, ReasonConcurrentDevice)
	}
	if s.SuccessfulSessions >= cfg.SessionCountMin {
		a.RiskValue += cfg.SessionCountPoints
		a.Reasons = append(a.Reasons, ReasonSessionCount)
	}
	a.IsSuspicious = a.Forced || a.RiskValue >= cfg.Threshold
	return a, nil
}
