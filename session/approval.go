// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"

	"github.com/greenroom-live/greenroom/wire"
)

// Decision is a director's verdict on a pending approval request.
// The zero value is invalid; Kind must be set. Fields beyond Kind
// are consulted only where the kind calls for them.
type Decision struct {
	Kind wire.DecisionKind
	// EditedText replaces the proposed dialogue for DecisionModify.
	EditedText string
	// Feedback accompanies a DecisionReject.
	Feedback string
	// AuthoredContent replaces generated output entirely for
	// DecisionTakeOver.
	AuthoredContent string
	// ApprovedTools and RejectedTools partition the proposed tool
	// calls for DecisionModify.
	ApprovedTools []string
	RejectedTools []string
}

func (d Decision) validate() error {
	switch d.Kind {
	case wire.DecisionAccept, wire.DecisionReject:
	case wire.DecisionModify:
		if d.EditedText == "" && len(d.ApprovedTools) == 0 && len(d.RejectedTools) == 0 {
			return fmt.Errorf("session: modify decision carries no edits")
		}
	case wire.DecisionTakeOver:
		if d.AuthoredContent == "" {
			return fmt.Errorf("session: take_over decision carries no content")
		}
	default:
		return fmt.Errorf("session: unknown decision kind %q", d.Kind)
	}
	return nil
}

// approvalState gates directorial approval. At most one request is
// pending at a time; a pending request is cleared only when the
// server confirms resolution or the decision send is confirmed on
// the wire, never on mere intent.
type approvalState struct {
	pending *wire.ApprovalRequired
	// inFlight is the outbound sequence number of a decision whose
	// send is awaiting confirmation, 0 when none.
	inFlight uint64
}

// begin records a new pending request. A second request while one is
// pending is a protocol violation and is rejected, retaining the
// original.
func (a *approvalState) begin(req wire.ApprovalRequired) error {
	if a.pending != nil {
		return fmt.Errorf("session: approval %s received while %s still pending", req.RequestID, a.pending.RequestID)
	}
	cp := req
	a.pending = &cp
	return nil
}

// decide marks a decision send in flight. The pending request stays
// pending until sendConfirmed.
func (a *approvalState) decide(seq uint64) error {
	if a.pending == nil {
		return fmt.Errorf("session: no approval pending")
	}
	if a.inFlight != 0 {
		return fmt.Errorf("session: decision for %s already in flight", a.pending.RequestID)
	}
	a.inFlight = seq
	return nil
}

// sendConfirmed clears the pending request if seq matches the
// in-flight decision. Reports whether the state changed.
func (a *approvalState) sendConfirmed(seq uint64) bool {
	if a.inFlight == 0 || seq != a.inFlight {
		return false
	}
	a.pending = nil
	a.inFlight = 0
	return true
}

// sendFailed aborts the in-flight decision, retaining the pending
// request so it can be decided again. Reports whether seq matched.
func (a *approvalState) sendFailed(seq uint64) bool {
	if a.inFlight == 0 || seq != a.inFlight {
		return false
	}
	a.inFlight = 0
	return true
}

// resolved handles the server settling the request out of band
// (ResponseApproved for it arrived). Clears any pending request.
func (a *approvalState) resolved(requestID string) bool {
	if a.pending == nil || a.pending.RequestID != requestID {
		return false
	}
	a.pending = nil
	a.inFlight = 0
	return true
}

// reset drops all approval state, for connection teardown.
func (a *approvalState) reset() {
	a.pending = nil
	a.inFlight = 0
}
