package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"nanowallet/core/types"
	"nanowallet/observability"
	"nanowallet/peer"
	"nanowallet/store"
)

var errPeerDown = errors.New("peer unavailable")

type fakePeer struct {
	mu sync.Mutex

	transactions func(query peer.TransactionsQuery) (*peer.TransactionsPage, error)
	unconfirmed  func(address string) ([]types.Transaction, error)
	account      func(address string) (*types.Account, error)
	delegate     func(publicKey string) (*types.Delegate, error)
	transaction  func(id string) (*types.Transaction, error)

	calls map[string]int
	args  map[string][]string
}

func newFakePeer() *fakePeer {
	return &fakePeer{calls: map[string]int{}, args: map[string][]string{}}
}

func (f *fakePeer) record(op, arg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.args[op] = append(f.args[op], arg)
}

func (f *fakePeer) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakePeer) Transactions(_ context.Context, _ *peer.Node, query peer.TransactionsQuery) (*peer.TransactionsPage, error) {
	f.record("transactions", query.Address)
	if f.transactions == nil {
		return &peer.TransactionsPage{Transactions: []types.Transaction{}, Count: "0"}, nil
	}
	return f.transactions(query)
}

func (f *fakePeer) UnconfirmedTransactions(_ context.Context, _ *peer.Node, address string) ([]types.Transaction, error) {
	f.record("unconfirmed", address)
	if f.unconfirmed == nil {
		return []types.Transaction{}, nil
	}
	return f.unconfirmed(address)
}

func (f *fakePeer) Account(_ context.Context, _ *peer.Node, address string) (*types.Account, error) {
	f.record("account", address)
	if f.account == nil {
		return &types.Account{Address: address, Balance: "0"}, nil
	}
	return f.account(address)
}

func (f *fakePeer) Delegate(_ context.Context, _ *peer.Node, publicKey string) (*types.Delegate, error) {
	f.record("delegate", publicKey)
	if f.delegate == nil {
		return nil, errPeerDown
	}
	return f.delegate(publicKey)
}

func (f *fakePeer) Transaction(_ context.Context, _ *peer.Node, id string) (*types.Transaction, error) {
	f.record("transaction", id)
	if f.transaction == nil {
		return nil, errPeerDown
	}
	return f.transaction(id)
}

// recorder captures every applied action in reducer order.
type recorder struct {
	mu      sync.Mutex
	actions []store.Action
}

func (r *recorder) listen(action store.Action, _ store.State) {
	r.mu.Lock()
	r.actions = append(r.actions, action)
	r.mu.Unlock()
}

func (r *recorder) all() []store.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Action(nil), r.actions...)
}

func (r *recorder) ofType(actionType store.ActionType) []store.Action {
	var out []store.Action
	for _, action := range r.all() {
		if action.Type == actionType {
			out = append(out, action)
		}
	}
	return out
}

func (r *recorder) indexOf(actionType store.ActionType) int {
	for i, action := range r.all() {
		if action.Type == actionType {
			return i
		}
	}
	return -1
}

type harness struct {
	peer     *fakePeer
	store    *store.Store
	recorder *recorder
	orch     *Orchestrator
	metrics  *observability.WalletMetrics
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	fake := newFakePeer()
	s := store.New()
	rec := &recorder{}
	s.Listen(rec.listen)
	metrics := observability.NewWalletMetrics(prometheus.NewRegistry())
	base := []Option{WithMetrics(metrics)}
	orch := New(fake, s, append(base, opts...)...)
	t.Cleanup(orch.Wait)
	return &harness{peer: fake, store: s, recorder: rec, orch: orch, metrics: metrics}
}

func page(count string, txs ...types.Transaction) *peer.TransactionsPage {
	if txs == nil {
		txs = []types.Transaction{}
	}
	return &peer.TransactionsPage{Transactions: txs, Count: peer.Count(count)}
}
