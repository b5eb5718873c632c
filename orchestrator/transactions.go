package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nanowallet/core/types"
	"nanowallet/peer"
	"nanowallet/store"
)

// ErrAddressRequired is returned when a workflow has no address to work on.
var ErrAddressRequired = errors.New("orchestrator: address required")

func (o *Orchestrator) startSpan(ctx context.Context, workflow string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "orchestrator."+workflow, trace.WithAttributes(attrs...))
}

func (o *Orchestrator) finish(span trace.Span, workflow string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	o.metrics.RecordWorkflow(workflow, err)
}

// ReconcilePending flags locally pending transactions the peer no longer
// reports as unconfirmed. An empty pending set makes no network call.
func (o *Orchestrator) ReconcilePending(ctx context.Context) (err error) {
	state := o.store.GetState()
	pending := state.Transactions.Pending
	if len(pending) == 0 {
		return nil
	}
	address := state.Transactions.ViewedAddress()
	if state.Account != nil && state.Account.Address != "" {
		address = state.Account.Address
	}
	ctx, span := o.startSpan(ctx, WorkflowReconcile,
		attribute.String("address", address),
		attribute.Int("pending", len(pending)))
	defer func() { o.finish(span, WorkflowReconcile, err) }()

	unconfirmed, err := o.peer.UnconfirmedTransactions(ctx, state.Peers.Data, address)
	if err != nil {
		return fmt.Errorf("reconcile pending: %w", err)
	}
	failed := make([]types.Transaction, 0, len(pending))
	for _, tx := range pending {
		if !types.ContainsID(unconfirmed, tx.ID) {
			failed = append(failed, tx)
		}
	}
	o.store.Dispatch(store.TransactionsFailedAction(failed))
	return nil
}

// ApplyFilter re-queries the viewed address's confirmed transactions with
// filter applied.
func (o *Orchestrator) ApplyFilter(ctx context.Context, filter types.Filter) (err error) {
	state := o.store.GetState()
	address := state.Transactions.ViewedAddress()
	ctx, span := o.startSpan(ctx, WorkflowFilter,
		attribute.String("address", address),
		attribute.String("filter", filter.String()))
	defer func() { o.finish(span, WorkflowFilter, err) }()

	if address == "" {
		return ErrAddressRequired
	}
	page, err := o.peer.Transactions(ctx, state.Peers.Data, peer.TransactionsQuery{
		Address: address,
		Limit:   o.pageSize,
		Filter:  filter,
	})
	if err != nil {
		return fmt.Errorf("filter transactions: %w", err)
	}
	count, err := page.Count.Int()
	if err != nil {
		return fmt.Errorf("filter transactions: %w", err)
	}
	o.store.Dispatch(store.TransactionsFilteredAction(store.FilteredData{
		Address:   address,
		Confirmed: page.Transactions,
		Count:     count,
		Filter:    filter,
	}))
	return nil
}

type delegateBranch int

const (
	branchNone delegateBranch = iota
	// branchLookup fetches the delegate of a different account.
	branchLookup
	// branchReuse copies the delegate already carried by the account snapshot.
	branchReuse
)

func (b delegateBranch) String() string {
	switch b {
	case branchLookup:
		return "lookup"
	case branchReuse:
		return "reuse"
	default:
		return "none"
	}
}

// selectDelegateBranch decides how delegate data reaches the view.
func selectDelegateBranch(isSameAccount bool, account *types.Account) delegateBranch {
	if account == nil {
		return branchNone
	}
	switch {
	case !isSameAccount && account.PublicKey != "":
		return branchLookup
	case isSameAccount && account.IsDelegate:
		return branchReuse
	default:
		return branchNone
	}
}

// InitView loads the transaction view for address: the first page of
// confirmed transactions, then the account, then delegate data chosen by
// selectDelegateBranch. Failures of the two primary calls are returned and
// leave the loading indicator set.
func (o *Orchestrator) InitView(ctx context.Context, address string) (err error) {
	address = strings.TrimSpace(address)
	state := o.store.GetState()
	requestID := o.newRequestID()
	ctx, span := o.startSpan(ctx, WorkflowInit,
		attribute.String("address", address),
		attribute.String("request_id", requestID))
	defer func() { o.finish(span, WorkflowInit, err) }()

	o.store.Dispatch(store.TransactionInitAction(address, requestID))
	o.store.Dispatch(store.LoadingStartedAction(store.LoadingKeyTransactionsInit))

	lastActiveAddress := ""
	if state.Account != nil && state.Account.PublicKey != "" {
		resolved, resolveErr := o.resolveAddress(state.Account.PublicKey)
		if resolveErr != nil {
			o.logger.Warn("derive active address",
				slog.String("workflow", WorkflowInit),
				slog.Any("error", resolveErr))
		} else {
			lastActiveAddress = resolved
		}
	}
	isSameAccount := lastActiveAddress != "" && lastActiveAddress == address

	node := state.Peers.Data
	page, err := o.peer.Transactions(ctx, node, peer.TransactionsQuery{Address: address, Limit: o.pageSize})
	if err != nil {
		return fmt.Errorf("init transactions: %w", err)
	}
	count, err := page.Count.Int()
	if err != nil {
		return fmt.Errorf("init transactions: %w", err)
	}
	account, err := o.peer.Account(ctx, node, address)
	if err != nil {
		return fmt.Errorf("init account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("init account: no account returned for %s", address)
	}

	result := store.AccountDataResult{
		Address:   address,
		Confirmed: page.Transactions,
		Count:     count,
		Balance:   account.Balance,
		RequestID: requestID,
	}
	branch := selectDelegateBranch(isSameAccount, account)
	span.SetAttributes(attribute.String("delegate_branch", branch.String()))
	switch branch {
	case branchLookup:
		delegate, lookupErr := o.peer.Delegate(ctx, node, account.PublicKey)
		if lookupErr != nil {
			o.metrics.RecordEnrichmentFailure(WorkflowInit)
			o.logger.Debug("delegate lookup failed",
				slog.String("workflow", WorkflowInit),
				slog.String("address", address),
				slog.Any("error", lookupErr))
		} else {
			result.Delegate = delegate.Clone()
		}
	case branchReuse:
		result.Delegate = account.Delegate.Clone()
	}

	o.store.Dispatch(store.TransactionsInitAction(result))
	o.store.Dispatch(store.LoadingFinishedAction(store.LoadingKeyTransactionsInit))
	return nil
}

// LoadTransaction fetches one transaction and resolves the delegates named by
// its votes. The transaction is dispatched as soon as it arrives; each
// delegate name follows independently when its lookup resolves. A fetch
// failure is surfaced through TransactionLoadFailed rather than returned.
func (o *Orchestrator) LoadTransaction(ctx context.Context, id string) (err error) {
	id = strings.TrimSpace(id)
	node := o.store.GetState().Peers.Data
	ctx, span := o.startSpan(ctx, WorkflowDetail, attribute.String("transaction_id", id))
	defer func() { o.finish(span, WorkflowDetail, err) }()

	tx, fetchErr := o.peer.Transaction(ctx, node, id)
	if fetchErr == nil && tx == nil {
		fetchErr = fmt.Errorf("transaction %s missing", id)
	}
	if fetchErr != nil {
		span.RecordError(fetchErr)
		o.store.Dispatch(store.TransactionLoadFailedAction(id, fetchErr))
		return nil
	}

	deleted := tx.DeletedVotes()
	added := tx.AddedVotes()
	o.store.Dispatch(store.TransactionLoadedAction(tx))

	// Lookups outlive the request that started them.
	lookupCtx := trace.ContextWithSpanContext(o.baseCtx, span.SpanContext())
	for _, publicKey := range deleted {
		o.resolveVote(lookupCtx, tx.ID, publicKey, store.VoteArrayDeleted)
	}
	for _, publicKey := range added {
		o.resolveVote(lookupCtx, tx.ID, publicKey, store.VoteArrayAdded)
	}
	return nil
}

func (o *Orchestrator) resolveVote(ctx context.Context, transactionID, publicKey, voteArrayName string) {
	o.goTracked(func() {
		delegate, err := o.peer.Delegate(ctx, o.store.GetState().Peers.Data, publicKey)
		if err == nil && delegate == nil {
			err = fmt.Errorf("delegate %s missing", publicKey)
		}
		if err != nil {
			o.metrics.RecordEnrichmentFailure(WorkflowDetail)
			o.logger.Debug("vote delegate lookup failed",
				slog.String("workflow", WorkflowDetail),
				slog.String("transaction", transactionID),
				slog.String("vote_array", voteArrayName),
				slog.Any("error", err))
			return
		}
		o.store.Dispatch(store.TransactionAddDelegateNameAction(transactionID, *delegate, voteArrayName))
	})
}
