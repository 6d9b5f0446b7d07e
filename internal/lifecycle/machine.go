// internal/lifecycle/machine.go
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	loopfsm "github.com/looplab/fsm"

	"github.com/vendorhub/marketplace-backend/internal/models"
)

type Event string

const (
	EventSubmit            Event = "submit"
	EventApprove           Event = "approve"
	EventReject            Event = "reject"
	EventRequestReapproval Event = "request_reapproval"
	EventRevise            Event = "revise"
)

// MinRejectionReasonLength is the shortest rejection reason an admin may
// record; a rejection must always tell the vendor why.
const MinRejectionReasonLength = 10

// events is the product status transition table in looplab/fsm format.
// No status is terminal: rejected products may be revised back to draft
// or resubmitted directly, approved products re-enter pending through
// request_reapproval.
var events = []loopfsm.EventDesc{
	{Name: string(EventSubmit), Src: []string{string(models.ProductStatusDraft), string(models.ProductStatusRejected)}, Dst: string(models.ProductStatusPending)},
	{Name: string(EventApprove), Src: []string{string(models.ProductStatusPending)}, Dst: string(models.ProductStatusApproved)},
	{Name: string(EventReject), Src: []string{string(models.ProductStatusPending)}, Dst: string(models.ProductStatusRejected)},
	{Name: string(EventRequestReapproval), Src: []string{string(models.ProductStatusApproved)}, Dst: string(models.ProductStatusPending)},
	{Name: string(EventRevise), Src: []string{string(models.ProductStatusRejected)}, Dst: string(models.ProductStatusDraft)},
}

// InvalidTransitionError is returned when an event is not legal from the
// product's current status.
type InvalidTransitionError struct {
	Current models.ProductStatus
	Event   Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// ReasonTooShortError is returned when a reject event carries a reason
// below the minimum length.
type ReasonTooShortError struct {
	Length int
}

func (e *ReasonTooShortError) Error() string {
	return fmt.Sprintf("rejection reason must be at least %d characters, got %d", MinRejectionReasonLength, e.Length)
}

// Result describes what a transition did: the status the product moved to
// and how the owning vendor's approved counter must change in the same
// transaction (+1 on approve, -1 on re-approval demotion, 0 otherwise).
type Result struct {
	NewStatus  models.ProductStatus
	CountDelta int
}

// apply validates the event against the current status. looplab/fsm is
// stateful, so a short-lived machine is built per call, initialized with
// the product's current status.
func apply(current models.ProductStatus, event Event) (models.ProductStatus, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(context.Background(), string(event)); err != nil {
		return "", &InvalidTransitionError{Current: current, Event: event}
	}

	return models.ProductStatus(machine.Current()), nil
}

// Transition moves the product through the lifecycle table and applies the
// side effects of the event in place: review timestamps, reviewer identity
// and rejection reason. The caller owns persistence and must apply the
// returned CountDelta to the vendor row inside the same transaction.
func Transition(product *models.Product, event Event, actor *uuid.UUID, reason string) (Result, error) {
	newStatus, err := apply(product.Status, event)
	if err != nil {
		return Result{}, err
	}

	now := time.Now()
	result := Result{NewStatus: newStatus}

	switch event {
	case EventSubmit:
		product.SubmittedAt = &now
		product.RejectionReason = ""

	case EventApprove:
		product.ApprovedAt = &now
		product.ApprovedBy = actor
		product.RejectionReason = ""
		result.CountDelta = 1

	case EventReject:
		trimmed := strings.TrimSpace(reason)
		if len(trimmed) < MinRejectionReasonLength {
			return Result{}, &ReasonTooShortError{Length: len(trimmed)}
		}
		product.RejectionReason = trimmed
		product.ApprovedBy = actor // reviewer who declined

	case EventRequestReapproval:
		product.SubmittedAt = &now
		product.ApprovedAt = nil
		product.ApprovedBy = nil
		result.CountDelta = -1

	case EventRevise:
		// The rejection reason stays visible while the vendor edits the
		// draft; it is cleared on the next submit.
	}

	product.Status = newStatus
	return result, nil
}
