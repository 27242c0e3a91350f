// Package routing decides how a flow recovers from a backend error. Every
// coordinator goes through Classify instead of inspecting hints itself.
package routing

import (
	"identhub/internal/domain"
)

// Decision is what the caller should do next.
type Decision int

const (
	// Propagate fails the owning action with the error.
	Propagate Decision = iota
	// Reroute continues transparently at Route.Step.
	Reroute
	// OfferFallback asks the user to retry or switch to Route.Step.
	OfferFallback
	// Retry lets the user try the same operation again.
	Retry
	// Abort ends the operation because the attempt budget is spent.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Propagate:
		return "propagate"
	case Reroute:
		return "reroute"
	case OfferFallback:
		return "offer_fallback"
	case Retry:
		return "retry"
	case Abort:
		return "abort"
	}
	return "unknown"
}

// Context is what the caller knows about the operation that failed.
// Attempts counts failures including this one. MaxAttempts <= 0 means the
// operation is one-shot.
type Context struct {
	Attempts    int
	MaxAttempts int
}

// Route is the outcome of Classify.
type Route struct {
	Decision Decision
	Step     domain.IdentificationStep
	Err      *domain.APIError
}

// IsRetryable reports whether err counts against a bounded retry budget.
// Only the two domain errors the backend uses for a rejected user input are.
func IsRetryable(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindClientError, domain.KindIncorrectIdentificationStatus:
		return true
	}
	return false
}

// Classify maps an error to a routing decision:
//
//   - a server nextStep hint always wins (Reroute);
//   - a retryable error with the budget spent reroutes to the fallback step if
//     there is one, else aborts;
//   - a fallback hint otherwise offers the user the choice;
//   - a retryable error without hints is retried;
//   - everything else propagates.
func Classify(err error, ctx Context) Route {
	apiErr := domain.AsAPIError(err)
	if apiErr == nil {
		return Route{Decision: Propagate}
	}

	if next, ok := apiErr.NextStep(); ok {
		return Route{Decision: Reroute, Step: next, Err: apiErr}
	}

	fallback, hasFallback := apiErr.FallbackStep()
	retryable := IsRetryable(apiErr) && ctx.MaxAttempts > 0

	if retryable && ctx.Attempts >= ctx.MaxAttempts {
		if hasFallback {
			return Route{Decision: Reroute, Step: fallback, Err: apiErr}
		}
		return Route{Decision: Abort, Err: apiErr}
	}
	if hasFallback {
		return Route{Decision: OfferFallback, Step: fallback, Err: apiErr}
	}
	if retryable {
		return Route{Decision: Retry, Err: apiErr}
	}
	return Route{Decision: Propagate, Err: apiErr}
}
