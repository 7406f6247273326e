// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenroom-live/greenroom/lib/clock"
	"github.com/greenroom-live/greenroom/transport"
	"github.com/greenroom-live/greenroom/wire"
)

var (
	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("session: client closed")
	// ErrNotConnected is returned by send methods while no live
	// session exists.
	ErrNotConnected = errors.New("session: not connected")
)

// Config carries everything a Client needs. Endpoint, UserID and Role
// are required; zero durations and counts take the defaults below.
type Config struct {
	// Endpoint is the server address, e.g. ws://127.0.0.1:3000/ws.
	Endpoint string
	// UserID identifies this participant to the server.
	UserID string
	// Role is the participant's role in the session.
	Role wire.Role
	// WorldID optionally selects the world to join.
	WorldID string

	// ConnectTimeout bounds one dial-and-join attempt.
	ConnectTimeout time.Duration
	// HeartbeatInterval is the liveness probe period.
	HeartbeatInterval time.Duration
	// HeartbeatMissLimit is how many consecutive silent intervals
	// force a reconnect.
	HeartbeatMissLimit int
	// ReconnectBase is the first backoff delay; each attempt doubles
	// it up to ReconnectCap.
	ReconnectBase time.Duration
	// ReconnectCap bounds the backoff delay.
	ReconnectCap time.Duration
	// ReconnectMaxAttempts is how many reconnect attempts run before
	// the client gives up and requires an explicit Retry.
	ReconnectMaxAttempts int

	// Transport overrides endpoint-based transport selection.
	// Primarily for tests.
	Transport transport.Transport
	// Clock defaults to the real clock.
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

const (
	defaultConnectTimeout       = 10 * time.Second
	defaultHeartbeatInterval    = 15 * time.Second
	defaultHeartbeatMissLimit   = 3
	defaultReconnectBase        = time.Second
	defaultReconnectCap         = 30 * time.Second
	defaultReconnectMaxAttempts = 8
)

func (cfg *Config) withDefaults() error {
	if cfg.Endpoint == "" {
		return errors.New("session: config missing endpoint")
	}
	if cfg.UserID == "" {
		return errors.New("session: config missing user ID")
	}
	if _, err := wire.ParseRole(string(cfg.Role)); err != nil {
		return fmt.Errorf("session: config: %w", err)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if cfg.HeartbeatMissLimit <= 0 {
		cfg.HeartbeatMissLimit = defaultHeartbeatMissLimit
	}
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = defaultReconnectBase
	}
	if cfg.ReconnectCap < cfg.ReconnectBase {
		cfg.ReconnectCap = defaultReconnectCap
	}
	if cfg.ReconnectMaxAttempts <= 0 {
		cfg.ReconnectMaxAttempts = defaultReconnectMaxAttempts
	}
	if cfg.Transport == nil {
		tr, err := transport.Pick(cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("session: config: %w", err)
		}
		cfg.Transport = tr
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return nil
}

// Snapshot is the observable state after one transition. Everything
// in it is a copy; holders may read it freely.
type Snapshot struct {
	Status Status
	// Identity is non-nil exactly while Status.Kind is
	// StatusConnected.
	Identity *Identity
	// Approval is the pending approval request, nil when idle.
	Approval *wire.ApprovalRequired
	// Batches are the tracked generation batches, sorted by ID.
	Batches []Batch
}

// Notice is a non-fatal problem surfaced to the presentation layer:
// a server Error frame or a local failure like a decision send that
// did not reach the wire.
type Notice struct {
	Message string
	Code    string
	Err     error
}

// Client maintains one logical connection to a stage server. All
// state transitions happen on a single internal goroutine; public
// methods enqueue work onto it and never touch state directly, so
// inbound messages are observed in arrival order.
type Client struct {
	cfg Config

	intents chan intent
	done    chan struct{}
	cancel  context.CancelFunc

	feeds feeds

	closeOnce sync.Once
}

// New validates cfg and starts the client's run loop. The client
// starts Disconnected; call Connect to dial.
func New(cfg Config) (*Client, error) {
	if err := cfg.withDefaults(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:     cfg,
		intents: make(chan intent, 32),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	c.feeds.init()
	go c.run(ctx)
	return c, nil
}

// Close stops the run loop, tears down any connection and closes all
// subscriber channels. Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(c.cancel)
	<-c.done
	return nil
}

// Connect starts dialing. A no-op when already connecting or
// connected; from Failed it behaves like Retry.
func (c *Client) Connect() error {
	return c.apply(connectIntent{reply: make(chan error, 1)})
}

// Retry restarts connection attempts after the client has given up.
// It is an error in any state other than Failed.
func (c *Client) Retry() error {
	return c.apply(retryIntent{reply: make(chan error, 1)})
}

// Disconnect tears the connection down and stops all reconnect and
// heartbeat timers. Idempotent; the session identity is dropped and
// will not be offered for resumption.
func (c *Client) Disconnect() error {
	return c.apply(disconnectIntent{reply: make(chan error, 1)})
}

// SendAction submits a player action and returns its client-minted
// action ID, which the server echoes while processing.
func (c *Client) SendAction(actionType, target, dialogue string) (string, error) {
	id := uuid.NewString()
	err := c.send(wire.PlayerAction{
		ActionID:   id,
		ActionType: actionType,
		Target:     target,
		Dialogue:   dialogue,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// SendDirectorialUpdate pushes directorial scene context to the
// server.
func (c *Client) SendDirectorialUpdate(u wire.DirectorialUpdate) error {
	return c.send(u)
}

// RequestSceneChange asks the server to move to another scene.
func (c *Client) RequestSceneChange(sceneID string) error {
	return c.send(wire.RequestSceneChange{SceneID: sceneID})
}

// TriggerChallenge puts a skill challenge to a character.
func (c *Client) TriggerChallenge(challengeID, targetCharacterID string) error {
	return c.send(wire.TriggerChallenge{
		ChallengeID:       challengeID,
		TargetCharacterID: targetCharacterID,
	})
}

// SubmitChallengeRoll sends the player's roll for a challenge.
func (c *Client) SubmitChallengeRoll(challengeID string, roll int) error {
	return c.send(wire.ChallengeRoll{ChallengeID: challengeID, Roll: roll})
}

// Decide resolves the pending approval request. The request stays
// pending until the decision is confirmed sent; a transport failure
// before then leaves it decidable again.
func (c *Client) Decide(d Decision) error {
	if err := d.validate(); err != nil {
		return err
	}
	return c.apply(decideIntent{d: d, reply: make(chan error, 1)})
}

// EvictBatch drops a finished (or unwanted) generation batch from
// the tracked set.
func (c *Client) EvictBatch(batchID string) error {
	return c.apply(evictIntent{batchID: batchID, reply: make(chan error, 1)})
}

// State returns the current snapshot.
func (c *Client) State() (Snapshot, error) {
	in := stateIntent{reply: make(chan Snapshot, 1)}
	select {
	case c.intents <- in:
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
	select {
	case snap := <-in.reply:
		return snap, nil
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
}

// Subscribe registers for state snapshots, published after every
// observable transition. Slow subscribers lose intermediate
// snapshots, never the stream. The cancel func unregisters.
func (c *Client) Subscribe() (<-chan Snapshot, func()) {
	return c.feeds.addSnapshot()
}

// Scenes registers for the narrative feed: scene updates, dialogue,
// processing markers, approved responses and challenge traffic, in
// arrival order.
func (c *Client) Scenes() (<-chan wire.Server, func()) {
	return c.feeds.addScene()
}

// Notices registers for non-fatal problems.
func (c *Client) Notices() (<-chan Notice, func()) {
	return c.feeds.addNotice()
}

func (c *Client) send(env wire.Client) error {
	return c.apply(sendIntent{env: env, reply: make(chan error, 1)})
}

func (c *Client) apply(in intent) error {
	select {
	case c.intents <- in:
	case <-c.done:
		return ErrClosed
	}
	select {
	case err := <-in.replyCh():
		return err
	case <-c.done:
		return ErrClosed
	}
}

// intent is one unit of work for the run loop. Every intent carries
// a buffered reply channel so callers block only until the loop
// picks it up.
type intent interface {
	replyCh() chan error
}

type connectIntent struct{ reply chan error }
type retryIntent struct{ reply chan error }
type disconnectIntent struct{ reply chan error }
type sendIntent struct {
	env   wire.Client
	reply chan error
}
type decideIntent struct {
	d     Decision
	reply chan error
}
type evictIntent struct {
	batchID string
	reply   chan error
}
type stateIntent struct{ reply chan Snapshot }

func (i connectIntent) replyCh() chan error    { return i.reply }
func (i retryIntent) replyCh() chan error      { return i.reply }
func (i disconnectIntent) replyCh() chan error { return i.reply }
func (i sendIntent) replyCh() chan error       { return i.reply }
func (i decideIntent) replyCh() chan error     { return i.reply }
func (i evictIntent) replyCh() chan error      { return i.reply }
func (i stateIntent) replyCh() chan error      { return nil }

// feeds is the subscriber registry. Publication is non-blocking:
// a full subscriber channel drops that delivery.
type feeds struct {
	mu      sync.Mutex
	closed  bool
	nextID  int
	snaps   map[int]chan Snapshot
	scenes  map[int]chan wire.Server
	notices map[int]chan Notice
}

func (f *feeds) init() {
	f.snaps = make(map[int]chan Snapshot)
	f.scenes = make(map[int]chan wire.Server)
	f.notices = make(map[int]chan Notice)
}

func (f *feeds) addSnapshot() (<-chan Snapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Snapshot, 16)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.snaps[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.snaps[id]; ok {
			delete(f.snaps, id)
			close(ch)
		}
	}
}

func (f *feeds) addScene() (<-chan wire.Server, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan wire.Server, 32)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.scenes[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.scenes[id]; ok {
			delete(f.scenes, id)
			close(ch)
		}
	}
}

func (f *feeds) addNotice() (<-chan Notice, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Notice, 16)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.notices[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.notices[id]; ok {
			delete(f.notices, id)
			close(ch)
		}
	}
}

func (f *feeds) publishSnapshot(s Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.snaps {
		select {
		case ch <- s:
		default:
		}
	}
}

func (f *feeds) publishScene(env wire.Server) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.scenes {
		select {
		case ch <- env:
		default:
		}
	}
}

func (f *feeds) publishNotice(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.notices {
		select {
		case ch <- n:
		default:
		}
	}
}

func (f *feeds) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, ch := range f.snaps {
		delete(f.snaps, id)
		close(ch)
	}
	for id, ch := range f.scenes {
		delete(f.scenes, id)
		close(ch)
	}
	for id, ch := range f.notices {
		delete(f.notices, id)
		close(ch)
	}
}
