package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"nanowallet/observability"
)

const updateHistoryLimit = 256

// Listener observes every applied action together with the resulting state.
// Listeners run in reducer order and must not dispatch.
type Listener func(action Action, state State)

// Hook runs after listeners, outside every store lock, and may dispatch.
type Hook func(action Action, state State)

// Update is one applied action as delivered to stream subscribers.
type Update struct {
	Sequence uint64 `json:"sequence"`
	Cursor   string `json:"cursor"`
	Action   Action `json:"action"`
	Stale    bool   `json:"stale,omitempty"`
}

// Store owns the wallet state. Reducers run atomically under a mutex.
type Store struct {
	mu    sync.RWMutex
	state State

	notifyMu  sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64

	hookMu sync.RWMutex
	hooks  []Hook

	streamMu   sync.Mutex
	streamSubs map[uint64]chan Update
	streamNext uint64
	streamSeq  uint64
	history    []Update

	metrics *observability.WalletMetrics
}

// Option customises a Store.
type Option func(*Store)

// WithMetrics records stale results and the pending set size.
func WithMetrics(metrics *observability.WalletMetrics) Option {
	return func(s *Store) { s.metrics = metrics }
}

// WithState seeds the store with an initial state.
func WithState(state State) Option {
	return func(s *Store) { s.state = state.Clone() }
}

// New constructs a Store holding InitialState.
func New(opts ...Option) *Store {
	s := &Store{
		state:      InitialState(),
		listeners:  make(map[uint64]Listener),
		streamSubs: make(map[uint64]chan Update),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetState returns a snapshot of the current state.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dispatch applies action through the reducers, then notifies listeners,
// stream subscribers and hooks.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	next, stale := Reduce(s.state, action)
	s.state = next
	snapshot := next.Clone()
	// Taking notifyMu before releasing mu keeps listener order equal to
	// reducer order.
	s.notifyMu.Lock()
	s.mu.Unlock()

	if stale {
		s.metrics.RecordStale(string(action.Type))
	}
	s.metrics.SetPending(len(snapshot.Transactions.Pending))

	listeners := make([]Listener, 0, len(s.listeners))
	for _, id := range s.sortedListenerIDs() {
		listeners = append(listeners, s.listeners[id])
	}
	for _, listener := range listeners {
		listener(action, snapshot)
	}
	s.publish(action, stale)
	s.notifyMu.Unlock()

	s.hookMu.RLock()
	hooks := append([]Hook(nil), s.hooks...)
	s.hookMu.RUnlock()
	for _, hook := range hooks {
		hook(action, snapshot)
	}
}

// Listen registers a listener and returns its removal function.
func (s *Store) Listen(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	s.notifyMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.notifyMu.Unlock()
	return func() {
		s.notifyMu.Lock()
		delete(s.listeners, id)
		s.notifyMu.Unlock()
	}
}

// Use appends a post-dispatch hook.
func (s *Store) Use(hook Hook) {
	if hook == nil {
		return
	}
	s.hookMu.Lock()
	s.hooks = append(s.hooks, hook)
	s.hookMu.Unlock()
}

// Subscribe registers a buffered stream of updates applied after cursor. The
// returned backlog holds retained updates newer than cursor. Slow subscribers
// miss updates rather than blocking dispatch.
func (s *Store) Subscribe(ctx context.Context, cursor string) (<-chan Update, func(), []Update, error) {
	if s == nil {
		return nil, nil, nil, fmt.Errorf("store not initialised")
	}
	updates := make(chan Update, 64)

	var since uint64
	if trimmed := strings.TrimSpace(cursor); trimmed != "" {
		parsed, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid cursor %q", cursor)
		}
		since = parsed
	}

	s.streamMu.Lock()
	id := s.streamNext
	s.streamNext++
	s.streamSubs[id] = updates
	backlog := make([]Update, 0, len(s.history))
	for _, update := range s.history {
		if update.Sequence > since {
			backlog = append(backlog, update)
		}
	}
	s.streamMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.streamMu.Lock()
			delete(s.streamSubs, id)
			s.streamMu.Unlock()
			close(updates)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return updates, cancel, backlog, nil
}

func (s *Store) publish(action Action, stale bool) {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	s.streamSeq++
	update := Update{
		Sequence: s.streamSeq,
		Cursor:   strconv.FormatUint(s.streamSeq, 10),
		Action:   action,
		Stale:    stale,
	}
	s.history = append(s.history, update)
	if len(s.history) > updateHistoryLimit {
		excess := len(s.history) - updateHistoryLimit
		trimmed := make([]Update, updateHistoryLimit)
		copy(trimmed, s.history[excess:])
		s.history = trimmed
	}
	for _, ch := range s.streamSubs {
		select {
		case ch <- update:
		default:
			observability.Stream().RecordDropped()
		}
	}
}

func (s *Store) sortedListenerIDs() []uint64 {
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
