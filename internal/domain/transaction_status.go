package domain

import (
	"errors"
	"fmt"
)

type TransactionStatus string

// remember to add new statuses to the transitions table
const (
	TransactionStatusPendingPayment   TransactionStatus = "pending_payment"
	TransactionStatusPaymentConfirmed TransactionStatus = "payment_confirmed"
	TransactionStatusProcessing       TransactionStatus = "processing"
	TransactionStatusShipped          TransactionStatus = "shipped"
	TransactionStatusDelivered        TransactionStatus = "delivered"
	TransactionStatusCompleted        TransactionStatus = "completed"
	TransactionStatusCancelled        TransactionStatus = "cancelled"
	TransactionStatusRefunded         TransactionStatus = "refunded"
	TransactionStatusDisputed         TransactionStatus = "disputed"
)

type statusSet map[TransactionStatus]struct{}

func setOf(statuses ...TransactionStatus) statusSet {
	s := make(statusSet, len(statuses))
	for _, status := range statuses {
		s[status] = struct{}{}
	}
	return s
}

// transitions is the single authority on legal status changes.
// Terminal statuses map to an empty set.
var transitions = map[TransactionStatus]statusSet{
	TransactionStatusPendingPayment:   setOf(TransactionStatusPaymentConfirmed, TransactionStatusCancelled),
	TransactionStatusPaymentConfirmed: setOf(TransactionStatusProcessing, TransactionStatusCancelled),
	TransactionStatusProcessing:       setOf(TransactionStatusShipped, TransactionStatusCancelled),
	TransactionStatusShipped:          setOf(TransactionStatusDelivered, TransactionStatusCancelled),
	TransactionStatusDelivered:        setOf(TransactionStatusCompleted),
	TransactionStatusDisputed:         setOf(TransactionStatusCompleted, TransactionStatusCancelled, TransactionStatusRefunded),
	TransactionStatusCompleted:        setOf(),
	TransactionStatusCancelled:        setOf(),
	TransactionStatusRefunded:         setOf(),
}

func ToTransactionStatus(s string) (TransactionStatus, error) {
	status := TransactionStatus(s)
	if _, ok := transitions[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid transaction status")
}

func TransactionStatuses() []TransactionStatus {
	result := make([]TransactionStatus, 0, len(transitions))
	for status := range transitions {
		result = append(result, status)
	}
	return result
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	_, ok := transitions[s][next]
	return ok
}

func (s TransactionStatus) IsTerminal() bool {
	allowed, ok := transitions[s]
	return ok && len(allowed) == 0
}

// PaymentCaptured reports whether money has been taken from the buyer by the time
// the transaction reached s.
func (s TransactionStatus) PaymentCaptured() bool {
	switch s {
	case TransactionStatusPendingPayment, TransactionStatusCancelled:
		return false
	default:
		return true
	}
}

// CheckTransition returns ErrInvalidTransition when next is not reachable from s.
func CheckTransition(from, to TransactionStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// OpenTransactionStatuses are the non-terminal statuses; at most one transaction
// per listing may be in one of them.
func OpenTransactionStatuses() []TransactionStatus {
	var result []TransactionStatus
	for status := range transitions {
		if !status.IsTerminal() {
			result = append(result, status)
		}
	}
	return result
}
