package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"nanowallet/core/types"
	"nanowallet/observability/logging"
	"nanowallet/store"
)

// Login derives the address for publicKey, fetches its account and makes it
// the active account.
func (o *Orchestrator) Login(ctx context.Context, publicKey string) (account *types.Account, err error) {
	publicKey = strings.TrimSpace(publicKey)
	ctx, span := o.startSpan(ctx, WorkflowLogin)
	defer func() { o.finish(span, WorkflowLogin, err) }()

	address, err := o.resolveAddress(publicKey)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	span.SetAttributes(attribute.String("address", address))
	fetched, err := o.peer.Account(ctx, o.store.GetState().Peers.Data, address)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if fetched == nil {
		return nil, fmt.Errorf("login: no account returned for %s", address)
	}
	account = fetched.Clone()
	account.Address = address
	account.PublicKey = publicKey
	o.store.Dispatch(store.AccountLoggedInAction(account))
	o.logger.Info("account logged in",
		slog.String("address", address),
		slog.String("publicKey", logging.MaskPublicKey(publicKey)))
	return account, nil
}

// Logout clears the active account and its views.
func (o *Orchestrator) Logout() {
	o.store.Dispatch(store.AccountLoggedOutAction())
}

// SubmitPending records an optimistically broadcast transaction as pending.
func (o *Orchestrator) SubmitPending(tx types.Transaction) error {
	if strings.TrimSpace(tx.ID) == "" {
		return fmt.Errorf("pending transaction id required")
	}
	o.store.Dispatch(store.TransactionAddedAction(tx))
	return nil
}
