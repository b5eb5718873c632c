package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"nanowallet/core/types"
	"nanowallet/crypto"
	"nanowallet/observability"
	"nanowallet/peer"
	"nanowallet/store"
)

// Workflow names used in logs, spans and metrics.
const (
	WorkflowReconcile = "reconcile"
	WorkflowFilter    = "filter"
	WorkflowInit      = "init"
	WorkflowDetail    = "detail"
	WorkflowLogin     = "login"
)

// PeerClient is the remote peer API consumed by the workflows.
type PeerClient interface {
	Transactions(ctx context.Context, node *peer.Node, query peer.TransactionsQuery) (*peer.TransactionsPage, error)
	UnconfirmedTransactions(ctx context.Context, node *peer.Node, address string) ([]types.Transaction, error)
	Account(ctx context.Context, node *peer.Node, address string) (*types.Account, error)
	Delegate(ctx context.Context, node *peer.Node, publicKey string) (*types.Delegate, error)
	Transaction(ctx context.Context, node *peer.Node, id string) (*types.Transaction, error)
}

// StateStore is the state container the workflows read from and dispatch to.
type StateStore interface {
	GetState() store.State
	Dispatch(action store.Action)
}

// Orchestrator runs the transaction view workflows. It holds no domain
// state; every invocation reads a fresh snapshot from the store.
type Orchestrator struct {
	peer    PeerClient
	store   StateStore
	logger  *slog.Logger
	metrics *observability.WalletMetrics
	tracer  trace.Tracer

	pageSize       int
	newRequestID   func() string
	resolveAddress func(publicKey string) (string, error)

	// baseCtx parents workflows started from the store hook.
	baseCtx context.Context
	wg      sync.WaitGroup
}

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics overrides the default metrics registry.
func WithMetrics(metrics *observability.WalletMetrics) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// WithTracer overrides the tracer used for workflow spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

// WithPageSize sets the confirmed transaction page size.
func WithPageSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithRequestIDs replaces the initialize-view request id generator.
func WithRequestIDs(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newRequestID = gen
		}
	}
}

// WithAddressResolver replaces the public key to address derivation.
func WithAddressResolver(resolve func(publicKey string) (string, error)) Option {
	return func(o *Orchestrator) {
		if resolve != nil {
			o.resolveAddress = resolve
		}
	}
}

// WithContext sets the parent context for hook-started workflows.
func WithContext(ctx context.Context) Option {
	return func(o *Orchestrator) {
		if ctx != nil {
			o.baseCtx = ctx
		}
	}
}

// New constructs an orchestrator over the supplied peer client and store.
func New(client PeerClient, s StateStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		peer:           client,
		store:          s,
		logger:         slog.Default(),
		tracer:         otel.Tracer("walletd/orchestrator"),
		pageSize:       peer.DefaultPageSize,
		newRequestID:   uuid.NewString,
		resolveAddress: crypto.AddressFromPublicKey,
		baseCtx:        context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = observability.Wallet()
	}
	return o
}

// Wait blocks until every goroutine started by the orchestrator has finished.
// Workflows never wait on their own enrichment lookups; Wait exists for
// shutdown draining.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) goTracked(fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
}
