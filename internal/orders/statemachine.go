package orders

import "github.com/tuanminhdo/fashionshop-backend/pkg/enums"

// transitions is the authoritative whitelist of status moves. Terminal
// states have no outbound edges. All authorization questions about "can
// this order go there" are answered here and nowhere else.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:       {enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusCompleted, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCompleted, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusShipped:    {enums.OrderStatusCompleted, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusCompleted:  {},
	enums.OrderStatusCancelled:  {},
	enums.OrderStatusRefunded:   {},
}

// CanTransition reports whether the move appears in the transition table.
// A same-status re-apply is always allowed; callers treat it as an
// idempotent no-op that still lands in the timeline.
func CanTransition(from, to enums.OrderStatus) bool {
	if from == to {
		return from.IsValid()
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the outbound edges for a status.
func AllowedTargets(from enums.OrderStatus) []enums.OrderStatus {
	targets := transitions[from]
	out := make([]enums.OrderStatus, len(targets))
	copy(out, targets)
	return out
}

// triggersRestock reports whether entering the target from a non-terminal
// state must restore inventory.
func triggersRestock(from, to enums.OrderStatus) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	return to == enums.OrderStatusCancelled || to == enums.OrderStatusRefunded
}
