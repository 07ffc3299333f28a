package ir

// Status is the four-valued outcome of any check or aggregate.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarn    Status = "warn"
	StatusFail    Status = "fail"
	StatusUnknown Status = "unknown"
)

// Rank returns the severity of a status under the total order
// fail > warn > unknown > pass. Unrecognized values rank as unknown.
func (s Status) Rank() int {
	switch s {
	case StatusPass:
		return 0
	case StatusWarn:
		return 2
	case StatusFail:
		return 3
	default:
		return 1
	}
}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusWarn, StatusFail, StatusUnknown:
		return true
	}
	return false
}

// Worse returns the more severe of two statuses.
func Worse(a, b Status) Status {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// WorstOf combines statuses by taking the most severe one.
// The result is independent of argument order. An empty input yields pass,
// the identity of the order.
func WorstOf(statuses ...Status) Status {
	worst := StatusPass
	for _, s := range statuses {
		worst = Worse(worst, s)
	}
	if !worst.Valid() {
		return StatusUnknown
	}
	return worst
}

// Feasibility is the septic feasibility verdict.
type Feasibility string

const (
	FeasibilityFeasible    Feasibility = "feasible"
	FeasibilityConditional Feasibility = "conditional"
	FeasibilityChallenging Feasibility = "challenging"
	FeasibilityNotFeasible Feasibility = "not_feasible"
	FeasibilityUnknown     Feasibility = "unknown"
)

// Degrade returns the worse of the current verdict and the limit. It never
// improves a verdict: not_feasible stays not_feasible whatever limit is applied.
// Unknown is only replaced by not_feasible.
func (f Feasibility) Degrade(limit Feasibility) Feasibility {
	if f == FeasibilityUnknown {
		if limit == FeasibilityNotFeasible {
			return limit
		}
		return f
	}
	if limit.rank() > f.rank() {
		return limit
	}
	return f
}

func (f Feasibility) rank() int {
	switch f {
	case FeasibilityFeasible:
		return 0
	case FeasibilityConditional:
		return 1
	case FeasibilityChallenging:
		return 2
	case FeasibilityNotFeasible:
		return 3
	default:
		return -1
	}
}

// Status maps a septic verdict onto the shared status order.
func (f Feasibility) Status() Status {
	switch f {
	case FeasibilityFeasible:
		return StatusPass
	case FeasibilityConditional, FeasibilityChallenging:
		return StatusWarn
	case FeasibilityNotFeasible:
		return StatusFail
	default:
		return StatusUnknown
	}
}

// Severity tags an Issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Suitability ranks a septic system type for a site.
type Suitability string

const (
	SuitabilityRecommended    Suitability = "recommended"
	SuitabilityAcceptable     Suitability = "acceptable"
	SuitabilityNotRecommended Suitability = "not_recommended"
)

// Order returns the sort position of a suitability tag.
func (s Suitability) Order() int {
	switch s {
	case SuitabilityRecommended:
		return 0
	case SuitabilityAcceptable:
		return 1
	default:
		return 2
	}
}
