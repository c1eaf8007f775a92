package engine

// DefaultPackage is the Rego package the evaluator queries.
const DefaultPackage = "riskauth.stepup"

const decisionQuery = "data." + DefaultPackage + ".decision"

// DefaultPolicy is the step-up rule set. A replacement policy must declare the same package
// and a decision object with suspicious, forced, risk_value and reasons.
const DefaultPolicy = `package riskauth.stepup

default forced := false

forced if input.signals.privileged

forced if input.signals.prior_sessions == 0

device_points := input.config.new_device_points if {
	input.signals.new_device
} else := 0

ip_points := input.config.new_ip_points if {
	input.signals.new_ip
} else := 0

concurrent_points := input.config.concurrent_device_points if {
	input.signals.same_device_sessions >= input.config.concurrent_device_min
} else := 0

session_count_points := input.config.session_count_points if {
	input.signals.successful_sessions >= input.config.session_count_min
} else := 0

risk_value := sum([device_points, ip_points, concurrent_points, session_count_points])

default suspicious := false

suspicious if forced

suspicious if risk_value >= input.config.threshold

flags contains "privileged_role" if input.signals.privileged

flags contains "first_login" if input.signals.prior_sessions == 0

flags contains "new_device" if input.signals.new_device

flags contains "new_ip" if input.signals.new_ip

flags contains "concurrent_device" if {
	input.signals.same_device_sessions >= input.config.concurrent_device_min
}

flags contains "session_count" if {
	input.signals.successful_sessions >= input.config.session_count_min
}

order := ["privileged_role", "first_login", "new_device", "new_ip", "concurrent_device", "session_count"]

reasons := [r | some r in order; r in flags]

decision := {
	"suspicious": suspicious,
	"forced": forced,
	"risk_value": risk_value,
	"reasons": reasons,
}
`
