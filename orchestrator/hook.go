package orchestrator

import (
	"context"
	"log/slog"

	"nanowallet/core/types"
	"nanowallet/store"
)

// Hook returns the store hook that starts a workflow for each trigger action.
// Workflows run in their own goroutines so Dispatch never blocks on the peer.
func (o *Orchestrator) Hook() store.Hook {
	return func(action store.Action, _ store.State) {
		switch action.Type {
		case store.TransactionsUpdated:
			o.run(WorkflowReconcile, func(ctx context.Context) error {
				return o.ReconcilePending(ctx)
			})
		case store.TransactionsFilterSet:
			data, ok := action.Data.(store.FilterSetData)
			if !ok {
				return
			}
			o.store.Dispatch(store.AddFilterAction(types.FilterScopeTransactions, data.Filter))
			o.run(WorkflowFilter, func(ctx context.Context) error {
				return o.ApplyFilter(ctx, data.Filter)
			})
		case store.TransactionsRequestInit:
			data, ok := action.Data.(store.RequestInitData)
			if !ok {
				return
			}
			o.run(WorkflowInit, func(ctx context.Context) error {
				return o.InitView(ctx, data.Address)
			})
		case store.TransactionLoadRequested:
			data, ok := action.Data.(store.LoadRequestedData)
			if !ok {
				return
			}
			o.run(WorkflowDetail, func(ctx context.Context) error {
				return o.LoadTransaction(ctx, data.ID)
			})
		}
	}
}

func (o *Orchestrator) run(workflow string, fn func(ctx context.Context) error) {
	o.goTracked(func() {
		if err := fn(o.baseCtx); err != nil {
			o.logger.Error("workflow failed",
				slog.String("workflow", workflow),
				slog.Any("error", err))
		}
	})
}
