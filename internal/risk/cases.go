package risk

// ScoringCase is a signal set with the assessment every Evaluator must produce under
// DefaultConfig. Alternative evaluators run these to prove they agree with Builtin.
type ScoringCase struct {
	Name    string
	Signals Signals
	Want    Assessment
}

// ScoringCases returns the reference cases.
func ScoringCases() []ScoringCase {
	return []ScoringCase{
		{
			Name:    "known device and ip",
			Signals: Signals{PriorSessions: 3, SuccessfulSessions: 3},
			Want:    Assessment{},
		},
		{
			Name:    "privileged role forces step-up",
			Signals: Signals{Privileged: true, PriorSessions: 3, SuccessfulSessions: 3},
			Want:    Assessment{IsSuspicious: true, Forced: true, Reasons: []string{ReasonPrivilegedRole}},
		},
		{
			Name:    "first login forces step-up",
			Signals: Signals{NewDevice: true, NewIP: true},
			Want: Assessment{IsSuspicious: true, Forced: true, RiskValue: 70,
				Reasons: []string{ReasonFirstLogin, ReasonNewDevice, ReasonNewIP}},
		},
		{
			Name:    "new device alone stays below threshold",
			Signals: Signals{PriorSessions: 2, NewDevice: true, SuccessfulSessions: 2},
			Want:    Assessment{RiskValue: 40, Reasons: []string{ReasonNewDevice}},
		},
		{
			Name:    "new ip alone stays below threshold",
			Signals: Signals{PriorSessions: 2, NewIP: true, SuccessfulSessions: 2},
			Want:    Assessment{RiskValue: 30, Reasons: []string{ReasonNewIP}},
		},
		{
			Name:    "two weak signals trip step-up",
			Signals: Signals{PriorSessions: 2, NewIP: true, SameDeviceSessions: 2, SuccessfulSessions: 2},
			Want:    Assessment{IsSuspicious: true, RiskValue: 60, Reasons: []string{ReasonNewIP, ReasonConcurrentDevice}},
		},
		{
			Name:    "one concurrent session is not enough",
			Signals: Signals{PriorSessions: 2, SameDeviceSessions: 1, SuccessfulSessions: 2},
			Want:    Assessment{},
		},
		{
			Name:    "established account on known device",
			Signals: Signals{PriorSessions: 6, SuccessfulSessions: 6},
			Want:    Assessment{RiskValue: 40, Reasons: []string{ReasonSessionCount}},
		},
		{
			Name:    "established account on new device and ip",
			Signals: Signals{PriorSessions: 6, NewDevice: true, NewIP: true, SuccessfulSessions: 6},
			Want: Assessment{IsSuspicious: true, RiskValue: 110,
				Reasons: []string{ReasonNewDevice, ReasonNewIP, ReasonSessionCount}},
		},
		{
			Name:    "every signal",
			Signals: Signals{Privileged: true, PriorSessions: 9, NewDevice: true, NewIP: true, SameDeviceSessions: 4, SuccessfulSessions: 9},
			Want: Assessment{IsSuspicious: true, Forced: true, RiskValue: 140,
				Reasons: []string{ReasonPrivilegedRole, ReasonNewDevice, ReasonNewIP, ReasonConcurrentDevice, ReasonSessionCount}},
		},
	}
}
