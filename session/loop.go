// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/greenroom-live/greenroom/lib/clock"
	"github.com/greenroom-live/greenroom/transport"
	"github.com/greenroom-live/greenroom/wire"
)

type dialResult struct {
	conn transport.Conn
	err  error
}

type readResult struct {
	frame []byte
	err   error
}

type outbound struct {
	seq   uint64
	tag   string
	frame []byte
}

type sendResult struct {
	seq uint64
	tag string
	err error
}

// connIO is the goroutine pair serving one live connection. Both
// goroutines exit when cancel fires or the connection errors; the
// loop drops the whole struct on teardown, so results from a dead
// connection are never observed.
type connIO struct {
	conn    transport.Conn
	cancel  context.CancelFunc
	reads   chan readResult
	writes  chan outbound
	results chan sendResult
}

// loop owns every piece of mutable client state. Only the run
// goroutine touches it, which is what makes the ordering guarantee
// hold: inbound frames mutate state strictly in arrival order.
type loop struct {
	c   *Client
	ctx context.Context
	log *slog.Logger
	clk clock.Clock

	status   Status
	attempt  int
	identity *Identity
	// resumeID is the last session ID, offered to the server on
	// reconnect. Cleared by explicit Disconnect.
	resumeID string
	approval approvalState
	gen      *generationTracker

	io         *connIO
	dials      chan dialResult
	dialCancel context.CancelFunc
	connectT   <-chan time.Time
	backoffT   <-chan time.Time
	hb         *clock.Ticker

	// sawInbound records any inbound traffic since the last
	// heartbeat tick; missed counts consecutive silent intervals.
	sawInbound bool
	missed     int

	seq uint64
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer c.feeds.closeAll()

	l := &loop{
		c:      c,
		ctx:    ctx,
		log:    c.cfg.Logger.With("component", "session", "endpoint", c.cfg.Endpoint),
		clk:    c.cfg.Clock,
		gen:    newGenerationTracker(),
		status: Status{Kind: StatusDisconnected},
	}
	defer l.teardown()

	for {
		var (
			reads   chan readResult
			results chan sendResult
			tick    <-chan time.Time
		)
		if l.io != nil {
			reads = l.io.reads
			results = l.io.results
		}
		if l.hb != nil {
			tick = l.hb.C
		}

		select {
		case <-ctx.Done():
			return
		case in := <-c.intents:
			l.handleIntent(in)
		case r := <-l.dials:
			l.handleDial(r)
		case <-l.connectT:
			l.scheduleReconnect("connect timed out")
		case <-l.backoffT:
			l.startConnect()
		case <-tick:
			l.heartbeatTick()
		case r := <-reads:
			l.handleRead(r)
		case res := <-results:
			l.handleSendResult(res)
		}
	}
}

func (l *loop) handleIntent(in intent) {
	switch in := in.(type) {
	case connectIntent:
		switch l.status.Kind {
		case StatusDisconnected, StatusFailed:
			l.attempt = 0
			l.startConnect()
		}
		in.reply <- nil
	case retryIntent:
		if l.status.Kind != StatusFailed {
			in.reply <- fmt.Errorf("session: retry while %s", l.status.Kind)
			return
		}
		l.attempt = 0
		l.startConnect()
		in.reply <- nil
	case disconnectIntent:
		l.disconnect()
		in.reply <- nil
	case sendIntent:
		if l.status.Kind != StatusConnected {
			in.reply <- ErrNotConnected
			return
		}
		_, err := l.enqueue(in.env)
		in.reply <- err
	case decideIntent:
		in.reply <- l.decide(in.d)
	case evictIntent:
		if l.gen.evict(in.batchID) {
			l.publishSnapshot()
		}
		in.reply <- nil
	case stateIntent:
		in.reply <- l.snapshot()
	}
}

func (l *loop) decide(d Decision) error {
	if l.status.Kind != StatusConnected {
		return ErrNotConnected
	}
	if l.approval.pending == nil {
		return errors.New("session: no approval pending")
	}
	if l.approval.inFlight != 0 {
		return fmt.Errorf("session: decision for %s already in flight", l.approval.pending.RequestID)
	}
	env := wire.ApprovalDecision{
		RequestID:       l.approval.pending.RequestID,
		Decision:        d.Kind,
		EditedText:      d.EditedText,
		Feedback:        d.Feedback,
		AuthoredContent: d.AuthoredContent,
		ApprovedTools:   d.ApprovedTools,
		RejectedTools:   d.RejectedTools,
	}
	seq, err := l.enqueue(env)
	if err != nil {
		return err
	}
	return l.approval.decide(seq)
}

// startConnect begins one dial attempt. The dial runs off-loop; its
// result arrives on l.dials. The connect timeout covers the whole
// attempt, dial through SessionJoined.
func (l *loop) startConnect() {
	dialCtx, cancel := context.WithCancel(l.ctx)
	l.dialCancel = cancel
	l.dials = make(chan dialResult, 1)
	l.connectT = l.clk.After(l.c.cfg.ConnectTimeout)
	l.backoffT = nil
	l.setStatus(Status{Kind: StatusConnecting})

	dials := l.dials
	tr, endpoint := l.c.cfg.Transport, l.c.cfg.Endpoint
	go func() {
		conn, err := tr.Open(dialCtx, endpoint)
		if dialCtx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}
		dials <- dialResult{conn: conn, err: err}
		// Teardown may have cancelled between the check and the send,
		// after draining the channel. The result would sit in the
		// abandoned buffer forever; reclaim it here. Exactly one of
		// the three drains (loop, teardown, this) wins.
		if dialCtx.Err() != nil {
			select {
			case r := <-dials:
				if r.conn != nil {
					r.conn.Close()
				}
			default:
			}
		}
	}()
}

func (l *loop) handleDial(r dialResult) {
	l.dials = nil
	if l.dialCancel != nil {
		l.dialCancel()
		l.dialCancel = nil
	}
	if r.err != nil {
		l.log.Warn("dial failed", "error", r.err)
		l.scheduleReconnect("dial: " + r.err.Error())
		return
	}

	connCtx, cancel := context.WithCancel(l.ctx)
	io := &connIO{
		conn:    r.conn,
		cancel:  cancel,
		reads:   make(chan readResult, 16),
		writes:  make(chan outbound, 64),
		results: make(chan sendResult, 64),
	}
	go readFrames(connCtx, io)
	go writeFrames(connCtx, io)
	l.io = io

	// Transport is up; the attempt completes when SessionJoined
	// lands.
	if _, err := l.enqueue(wire.JoinSession{
		UserID:          l.c.cfg.UserID,
		Role:            l.c.cfg.Role,
		WorldID:         l.c.cfg.WorldID,
		ResumeSessionID: l.resumeID,
	}); err != nil {
		l.scheduleReconnect("join: " + err.Error())
	}
}

func readFrames(ctx context.Context, io *connIO) {
	for {
		frame, err := io.conn.Receive(ctx)
		select {
		case io.reads <- readResult{frame: frame, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func writeFrames(ctx context.Context, io *connIO) {
	for {
		select {
		case o := <-io.writes:
			err := io.conn.Send(ctx, o.frame)
			select {
			case io.results <- sendResult{seq: o.seq, tag: o.tag, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// enqueue encodes env and hands it to the writer. Outbound frames go
// out strictly in enqueue order.
func (l *loop) enqueue(env wire.Client) (uint64, error) {
	if l.io == nil {
		return 0, ErrNotConnected
	}
	frame, err := wire.Encode(env)
	if err != nil {
		return 0, err
	}
	l.seq++
	o := outbound{seq: l.seq, tag: fmt.Sprintf("%T", env), frame: frame}
	select {
	case l.io.writes <- o:
		return l.seq, nil
	default:
		return 0, errors.New("session: outbound queue full")
	}
}

func (l *loop) heartbeatTick() {
	if l.status.Kind != StatusConnected {
		return
	}
	if l.sawInbound {
		l.missed = 0
	} else {
		l.missed++
		if l.missed >= l.c.cfg.HeartbeatMissLimit {
			l.scheduleReconnect(fmt.Sprintf("no server traffic for %d heartbeat intervals", l.missed))
			return
		}
	}
	l.sawInbound = false
	if _, err := l.enqueue(wire.Heartbeat{}); err != nil {
		l.log.Warn("heartbeat not sent", "error", err)
	}
}

func (l *loop) handleRead(r readResult) {
	if r.err != nil {
		if l.ctx.Err() != nil {
			return
		}
		l.log.Warn("receive failed", "error", r.err)
		l.scheduleReconnect("receive: " + r.err.Error())
		return
	}
	// Any inbound traffic counts as liveness, decodable or not.
	l.sawInbound = true

	env, err := wire.Decode(r.frame)
	if err != nil {
		if wire.IsUnknownVariant(err) {
			l.log.Debug("dropping unknown message", "error", err)
		} else {
			l.log.Warn("dropping malformed frame", "error", err)
		}
		return
	}
	l.dispatch(env)
}

// dispatch routes one decoded envelope. State-bearing messages
// mutate the machines and publish a snapshot; narrative messages go
// to the scene feed as-is.
func (l *loop) dispatch(env wire.Server) {
	switch m := env.(type) {
	case wire.SessionJoined:
		l.sessionJoined(m)
	case wire.Pong:
		// Liveness only.
	case wire.SceneUpdate, wire.DialogueResponse, wire.LLMProcessing,
		wire.ChallengePrompt, wire.ChallengeResolved:
		l.c.feeds.publishScene(env)
	case wire.ApprovalRequired:
		if err := l.approval.begin(m); err != nil {
			l.log.Warn("approval request rejected", "error", err)
			l.c.feeds.publishNotice(Notice{
				Message: "duplicate approval request dropped",
				Err:     err,
			})
			return
		}
		l.publishSnapshot()
	case wire.ResponseApproved:
		if l.approval.resolved(m.RequestID) {
			l.publishSnapshot()
		}
		l.c.feeds.publishScene(env)
	case wire.GenerationEvent:
		if l.gen.apply(m) {
			l.publishSnapshot()
		}
	case wire.Error:
		l.log.Warn("server error", "code", m.Code, "message", m.Message)
		l.c.feeds.publishNotice(Notice{Message: m.Message, Code: m.Code})
	default:
		l.log.Warn("unrouted message", "type", fmt.Sprintf("%T", env))
	}
}

func (l *loop) sessionJoined(m wire.SessionJoined) {
	resumed := m.Resumed && m.SessionID == l.resumeID
	wasConnected := l.status.Kind == StatusConnected
	l.connectT = nil
	l.identity = &Identity{
		SessionID:     m.SessionID,
		Role:          l.c.cfg.Role,
		WorldSnapshot: m.WorldSnapshot,
	}
	l.resumeID = m.SessionID
	l.attempt = 0
	l.missed = 0
	if l.hb == nil {
		l.hb = l.clk.NewTicker(l.c.cfg.HeartbeatInterval)
	}
	if !resumed {
		// Fresh session: anything pending belonged to the old one.
		l.approval.reset()
		l.gen.reset()
	}
	l.log.Info("session joined", "session_id", m.SessionID, "resumed", resumed)
	l.setStatus(Status{Kind: StatusConnected})
	if wasConnected {
		// Status did not change, but the identity did.
		l.publishSnapshot()
	}
}

func (l *loop) handleSendResult(res sendResult) {
	if res.err == nil {
		if l.approval.sendConfirmed(res.seq) {
			l.publishSnapshot()
		}
		return
	}
	if l.approval.sendFailed(res.seq) {
		// The request stays pending; the director decides again.
		l.c.feeds.publishNotice(Notice{
			Message: "approval decision was not delivered",
			Err:     res.err,
		})
	}
	if l.ctx.Err() != nil {
		return
	}
	l.log.Warn("send failed", "message", res.tag, "error", res.err)
	l.scheduleReconnect("send: " + res.err.Error())
}

// scheduleReconnect tears down the connection and arms the backoff
// timer, or gives up when the attempt budget is spent.
func (l *loop) scheduleReconnect(reason string) {
	l.teardown()
	l.attempt++
	if l.attempt > l.c.cfg.ReconnectMaxAttempts {
		l.log.Error("giving up", "attempts", l.attempt-1, "reason", reason)
		l.setStatus(Status{Kind: StatusFailed, Reason: reason})
		return
	}
	delay := backoffDelay(l.c.cfg.ReconnectBase, l.c.cfg.ReconnectCap, l.attempt)
	l.log.Warn("reconnecting", "attempt", l.attempt, "delay", delay, "reason", reason)
	l.backoffT = l.clk.After(delay)
	l.setStatus(Status{Kind: StatusReconnecting, Attempt: l.attempt})
}

// disconnect is the explicit, user-driven teardown. Unlike a
// transient drop it forgets the session entirely, so a later Connect
// joins fresh.
func (l *loop) disconnect() {
	l.teardown()
	l.resumeID = ""
	l.attempt = 0
	l.approval.reset()
	l.gen.reset()
	l.setStatus(Status{Kind: StatusDisconnected})
}

// teardown stops every connection-scoped resource: dial, timers,
// heartbeat, IO goroutines. Safe to call in any state, any number of
// times. Status is left for the caller to set.
func (l *loop) teardown() {
	if l.dialCancel != nil {
		l.dialCancel()
		l.dialCancel = nil
	}
	if l.dials != nil {
		// A dial may have completed between cancel and here.
		select {
		case r := <-l.dials:
			if r.conn != nil {
				r.conn.Close()
			}
		default:
		}
		l.dials = nil
	}
	l.connectT = nil
	l.backoffT = nil
	if l.hb != nil {
		l.hb.Stop()
		l.hb = nil
	}
	if l.io != nil {
		l.io.cancel()
		l.io.conn.Close()
		l.io = nil
	}
	l.identity = nil
	l.sawInbound = false
	l.missed = 0
	// An in-flight decision can no longer be confirmed; the request
	// itself stays pending for after the reconnect.
	l.approval.inFlight = 0
}

func (l *loop) setStatus(s Status) {
	if l.status == s {
		return
	}
	l.status = s
	l.log.Info("status changed", "status", s.String())
	l.publishSnapshot()
}

func (l *loop) snapshot() Snapshot {
	snap := Snapshot{Status: l.status, Batches: l.gen.snapshot()}
	if l.identity != nil {
		cp := *l.identity
		snap.Identity = &cp
	}
	if l.approval.pending != nil {
		cp := *l.approval.pending
		snap.Approval = &cp
	}
	return snap
}

func (l *loop) publishSnapshot() {
	l.c.feeds.publishSnapshot(l.snapshot())
}

// backoffDelay is base doubled per attempt, capped at ceiling.
func backoffDelay(base, ceiling time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		return ceiling
	}
	d := base << (attempt - 1)
	if d <= 0 || d > ceiling {
		return ceiling
	}
	return d
}
