package domain

// Outcome classifies the result of a registry mutation.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeCreated     Outcome = "created"
	OutcomeUpdated     Outcome = "updated"
	OutcomeNoOperation Outcome = "no_operation"
	OutcomeFailed      Outcome = "failed"
)

// Result is what every registry mutation returns. Party is the state after the
// mutation (or the removed snapshot for removals) and is nil when nothing
// changed or the mutation failed.
type Result struct {
	Outcome Outcome
	Party   *RemoteParty
	Message string
}

// OK reports whether the mutation was applied or was a harmless no-op.
func (r Result) OK() bool {
	return r.Outcome != OutcomeFailed
}

// Failed builds a failed result.
func Failed(message string) Result {
	return Result{Outcome: OutcomeFailed, Message: message}
}

// NoOperation builds a result for a mutation that changed nothing.
func NoOperation(message string) Result {
	return Result{Outcome: OutcomeNoOperation, Message: message}
}

// PartyAccess pairs a party with the credential that authenticated a request.
type PartyAccess struct {
	Party           *RemoteParty
	LocalAccessInfo LocalAccessInfo
}
