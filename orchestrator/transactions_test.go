package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"nanowallet/core/types"
	"nanowallet/peer"
	"nanowallet/store"
)

const (
	activePublicKey = "c094ebee7ec0c50ebee32918655e089f6e1a604b83bcaa760293c61e0f18ab6f"
	activeAddress   = "16313739661670634666L"
)

func TestReconcilePendingEmptyMakesNoCall(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.orch.ReconcilePending(context.Background()))
	require.Equal(t, 0, h.peer.count("unconfirmed"))
	require.Empty(t, h.recorder.ofType(store.TransactionsFailed))
}

func TestReconcilePendingScenario(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(store.AccountLoggedInAction(&types.Account{Address: "X", PublicKey: activePublicKey}))
	h.store.Dispatch(store.TransactionAddedAction(types.Transaction{ID: "2"}))
	h.store.Dispatch(store.TransactionAddedAction(types.Transaction{ID: "1"}))
	h.peer.unconfirmed = func(string) ([]types.Transaction, error) {
		return []types.Transaction{{ID: "1"}}, nil
	}

	require.NoError(t, h.orch.ReconcilePending(context.Background()))

	failed := h.recorder.ofType(store.TransactionsFailed)
	require.Len(t, failed, 1)
	require.Equal(t, []types.Transaction{{ID: "2"}}, failed[0].Data.(store.FailedData).Failed)
	require.Equal(t, []types.Transaction{{ID: "1"}}, h.store.GetState().Transactions.Pending)
	require.Equal(t, []string{"X"}, h.peer.args["unconfirmed"])
}

func TestReconcilePendingIsSetDifference(t *testing.T) {
	cases := []struct {
		pending     []string
		unconfirmed []string
		failed      []string
	}{
		{pending: []string{"a"}, unconfirmed: nil, failed: []string{"a"}},
		{pending: []string{"a", "b"}, unconfirmed: []string{"a", "b"}, failed: []string{}},
		{pending: []string{"a", "b", "c"}, unconfirmed: []string{"c", "z"}, failed: []string{"a", "b"}},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			h := newHarness(t)
			for j := len(tc.pending) - 1; j >= 0; j-- {
				h.store.Dispatch(store.TransactionAddedAction(types.Transaction{ID: tc.pending[j]}))
			}
			h.peer.unconfirmed = func(string) ([]types.Transaction, error) {
				out := []types.Transaction{}
				for _, id := range tc.unconfirmed {
					out = append(out, types.Transaction{ID: id})
				}
				return out, nil
			}
			require.NoError(t, h.orch.ReconcilePending(context.Background()))
			failed := h.recorder.ofType(store.TransactionsFailed)[0].Data.(store.FailedData).Failed
			ids := []string{}
			for _, tx := range failed {
				ids = append(ids, tx.ID)
			}
			require.Equal(t, tc.failed, ids)
		})
	}
}

func TestReconcilePendingErrorIsReturned(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(store.TransactionAddedAction(types.Transaction{ID: "1"}))
	h.peer.unconfirmed = func(string) ([]types.Transaction, error) { return nil, errPeerDown }

	err := h.orch.ReconcilePending(context.Background())
	require.ErrorIs(t, err, errPeerDown)
	require.Empty(t, h.recorder.ofType(store.TransactionsFailed))
	require.Len(t, h.store.GetState().Transactions.Pending, 1)

	workflows, _, _, _ := h.metrics.Collectors()
	require.Equal(t, 1.0, testutil.ToFloat64(workflows.WithLabelValues(WorkflowReconcile, "error")))
}

func seedView(t *testing.T, h *harness, address string) {
	t.Helper()
	h.store.Dispatch(store.TransactionInitAction(address, "seed"))
	h.store.Dispatch(store.TransactionsInitAction(store.AccountDataResult{Address: address, RequestID: "seed"}))
}

func TestApplyFilterScenario(t *testing.T) {
	h := newHarness(t)
	seedView(t, h, "X")
	t1 := types.Transaction{ID: "t1", RecipientID: "X"}
	t2 := types.Transaction{ID: "t2", RecipientID: "X"}
	var seen peer.TransactionsQuery
	h.peer.transactions = func(query peer.TransactionsQuery) (*peer.TransactionsPage, error) {
		seen = query
		return page("2", t1, t2), nil
	}

	require.NoError(t, h.orch.ApplyFilter(context.Background(), types.FilterIncoming))

	require.Equal(t, "X", seen.Address)
	require.Equal(t, 25, seen.Limit)
	require.Equal(t, types.FilterIncoming, seen.Filter)
	filtered := h.recorder.ofType(store.TransactionsFiltered)
	require.Len(t, filtered, 1)
	data := filtered[0].Data.(store.FilteredData)
	require.Equal(t, []types.Transaction{t1, t2}, data.Confirmed)
	require.Equal(t, 2, data.Count)
	require.Equal(t, types.FilterIncoming, data.Filter)
	require.Equal(t, "in", data.Filter.String())
	require.Equal(t, 2, h.store.GetState().Transactions.Count)
}

func TestApplyFilterCountAlwaysInteger(t *testing.T) {
	for _, raw := range []string{"42", "0", "1000"} {
		h := newHarness(t)
		seedView(t, h, "X")
		h.peer.transactions = func(peer.TransactionsQuery) (*peer.TransactionsPage, error) {
			return page(raw), nil
		}
		require.NoError(t, h.orch.ApplyFilter(context.Background(), types.FilterAll))
		data := h.recorder.ofType(store.TransactionsFiltered)[0].Data.(store.FilteredData)
		require.Equal(t, raw, fmt.Sprint(data.Count))
	}
}

func TestApplyFilterErrors(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.orch.ApplyFilter(context.Background(), types.FilterAll), ErrAddressRequired)

	seedView(t, h, "X")
	h.peer.transactions = func(peer.TransactionsQuery) (*peer.TransactionsPage, error) { return nil, errPeerDown }
	require.ErrorIs(t, h.orch.ApplyFilter(context.Background(), types.FilterOutgoing), errPeerDown)

	h.peer.transactions = func(peer.TransactionsQuery) (*peer.TransactionsPage, error) { return page("many"), nil }
	require.Error(t, h.orch.ApplyFilter(context.Background(), types.FilterOutgoing))
	require.Empty(t, h.recorder.ofType(store.TransactionsFiltered))
}

func requireSingleFinishAfterInit(t *testing.T, h *harness) store.AccountDataResult {
	t.Helper()
	inits := h.recorder.ofType(store.TransactionsInit)
	require.Len(t, inits, 1)
	var finished []store.Action
	for _, action := range h.recorder.ofType(store.LoadingFinished) {
		if action.Data.(store.LoadingData).Key == store.LoadingKeyTransactionsInit {
			finished = append(finished, action)
		}
	}
	require.Len(t, finished, 1)
	require.Less(t, h.recorder.indexOf(store.TransactionsInit), h.recorder.indexOf(store.LoadingFinished))
	require.False(t, h.store.GetState().IsLoading(store.LoadingKeyTransactionsInit))
	return inits[0].Data.(store.AccountDataResult)
}

func TestInitViewLookupBranchAttachesDelegate(t *testing.T) {
	h := newHarness(t)
	h.peer.transactions = func(peer.TransactionsQuery) (*peer.TransactionsPage, error) {
		return page("3", types.Transaction{ID: "a"}), nil
	}
	h.peer.account = func(address string) (*types.Account, error) {
		return &types.Account{Address: address, PublicKey: "pkD", Balance: "12500000000"}, nil
	}
	h.peer.delegate = func(publicKey string) (*types.Delegate, error) {
		return &types.Delegate{Username: "genesis_3", PublicKey: publicKey}, nil
	}

	require.NoError(t, h.orch.InitView(context.Background(), "D"))

	result := requireSingleFinishAfterInit(t, h)
	require.Equal(t, "D", result.Address)
	require.Equal(t, 3, result.Count)
	require.Equal(t, types.Amount("12500000000"), result.Balance)
	require.NotNil(t, result.Delegate)
	require.Equal(t, "genesis_3", result.Delegate.Username)
	require.Equal(t, []string{"pkD"}, h.peer.args["delegate"])

	state := h.store.GetState()
	require.True(t, state.Transactions.Loaded)
	require.Equal(t, "genesis_3", state.Transactions.Account.Delegate.Username)
}

func TestInitViewLookupFailureOmitsDelegate(t *testing.T) {
	h := newHarness(t)
	h.peer.account = func(address string) (*types.Account, error) {
		return &types.Account{Address: address, PublicKey: "pkD", Balance: "1"}, nil
	}

	require.NoError(t, h.orch.InitView(context.Background(), "D"))

	result := requireSingleFinishAfterInit(t, h)
	require.Nil(t, result.Delegate)
	require.Equal(t, 1, h.peer.count("delegate"))
	_, enrichment, _, _ := h.metrics.Collectors()
	require.Equal(t, 1.0, testutil.ToFloat64(enrichment.WithLabelValues(WorkflowInit)))
}

func TestInitViewSameAccountReusesDelegateWithoutCall(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(store.AccountLoggedInAction(&types.Account{Address: activeAddress, PublicKey: activePublicKey}))
	known := &types.Delegate{Username: "me", PublicKey: activePublicKey, Rate: 7, Approval: 1.5}
	h.peer.account = func(address string) (*types.Account, error) {
		return &types.Account{Address: address, PublicKey: activePublicKey, Balance: "9", IsDelegate: true, Delegate: known}, nil
	}

	require.NoError(t, h.orch.InitView(context.Background(), activeAddress))

	result := requireSingleFinishAfterInit(t, h)
	require.Equal(t, 0, h.peer.count("delegate"))
	require.Equal(t, *known, *result.Delegate)
}

func TestInitViewSameAccountNotDelegate(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(store.AccountLoggedInAction(&types.Account{Address: activeAddress, PublicKey: activePublicKey}))
	h.peer.account = func(address string) (*types.Account, error) {
		return &types.Account{Address: address, PublicKey: activePublicKey, Balance: "9"}, nil
	}

	require.NoError(t, h.orch.InitView(context.Background(), activeAddress))

	result := requireSingleFinishAfterInit(t, h)
	require.Nil(t, result.Delegate)
	require.Equal(t, 0, h.peer.count("delegate"))
}

func TestInitViewUnknownAccountHasNoDelegate(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.orch.InitView(context.Background(), "N"))
	result := requireSingleFinishAfterInit(t, h)
	require.Nil(t, result.Delegate)
	require.Equal(t, types.Amount("0"), result.Balance)
	require.Equal(t, 0, h.peer.count("delegate"))
}

func TestInitViewCallOrder(t *testing.T) {
	h := newHarness(t)
	var order []string
	h.peer.transactions = func(peer.TransactionsQuery) (*peer.TransactionsPage, error) {
		order = append(order, "transactions")
		return page("0"), nil
	}
	h.peer.account = func(address string) (*types.Account, error) {
		order = append(order, "account")
		return &types.Account{Address: address, PublicKey: "pk"}, nil
	}
	h.peer.delegate = func(string) (*types.Delegate, error) {
		order = append(order, "delegate")
		return &types.Delegate{Username: "d"}, nil
	}
	require.NoError(t, h.orch.InitView(context.Background(), "A"))
	require.Equal(t, []string{"transactions", "account", "delegate"}, order)
	require.Less(t, h.recorder.indexOf(store.TransactionInit), h.recorder.indexOf(store.LoadingStarted))
}

func TestInitViewPrimaryFailureIsUnguarded(t *testing.T) {
	h := newHarness(t)
	h.peer.transactions = func(peer.TransactionsQuery) (*peer.TransactionsPage, error) { return nil, errPeerDown }

	err := h.orch.InitView(context.Background(), "A")
	require.ErrorIs(t, err, errPeerDown)
	require.Equal(t, 0, h.peer.count("account"))
	require.Empty(t, h.recorder.ofType(store.TransactionsInit))
	require.Empty(t, h.recorder.ofType(store.LoadingFinished))
	require.True(t, h.store.GetState().IsLoading(store.LoadingKeyTransactionsInit))

	h2 := newHarness(t)
	h2.peer.account = func(string) (*types.Account, error) { return nil, errPeerDown }
	require.ErrorIs(t, h2.orch.InitView(context.Background(), "A"), errPeerDown)
	require.Empty(t, h2.recorder.ofType(store.TransactionsInit))
	require.Empty(t, h2.recorder.ofType(store.LoadingFinished))
}

func TestInitViewStaleResultIgnored(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t)
	h.peer.transactions = func(query peer.TransactionsQuery) (*peer.TransactionsPage, error) {
		if query.Address == "A" {
			<-release
			return page("1", types.Transaction{ID: "from-a"}), nil
		}
		return page("1", types.Transaction{ID: "from-b"}), nil
	}

	done := make(chan error, 1)
	go func() { done <- h.orch.InitView(context.Background(), "A") }()
	require.Eventually(t, func() bool { return h.peer.count("transactions") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.orch.InitView(context.Background(), "B"))
	require.True(t, h.store.GetState().IsLoading(store.LoadingKeyTransactionsInit), "A is still in flight")
	close(release)
	require.NoError(t, <-done)
	require.False(t, h.store.GetState().IsLoading(store.LoadingKeyTransactionsInit))

	state := h.store.GetState()
	require.Equal(t, "B", state.Transactions.Account.Address)
	require.Equal(t, "from-b", state.Transactions.Confirmed[0].ID)
	require.Len(t, h.recorder.ofType(store.TransactionsInit), 2)
	_, _, stale, _ := h.metrics.Collectors()
	require.Equal(t, 1.0, testutil.ToFloat64(stale.WithLabelValues(string(store.TransactionsInit))))
}

func TestSelectDelegateBranch(t *testing.T) {
	require.Equal(t, branchNone, selectDelegateBranch(false, nil))
	require.Equal(t, branchLookup, selectDelegateBranch(false, &types.Account{PublicKey: "pk"}))
	require.Equal(t, branchLookup, selectDelegateBranch(false, &types.Account{PublicKey: "pk", IsDelegate: true}))
	require.Equal(t, branchNone, selectDelegateBranch(false, &types.Account{}))
	require.Equal(t, branchReuse, selectDelegateBranch(true, &types.Account{PublicKey: "pk", IsDelegate: true}))
	require.Equal(t, branchNone, selectDelegateBranch(true, &types.Account{PublicKey: "pk"}))
}

func TestLoadTransactionResolvesVoteNames(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(store.TransactionLoadRequestedAction("9"))
	h.peer.transaction = func(id string) (*types.Transaction, error) {
		return &types.Transaction{ID: id, Type: types.TxTypeVote, Votes: &types.Votes{Added: []string{"pkA"}, Deleted: []string{"pkB"}}}, nil
	}
	h.peer.delegate = func(publicKey string) (*types.Delegate, error) {
		return &types.Delegate{Username: "name-" + publicKey, PublicKey: publicKey}, nil
	}

	require.NoError(t, h.orch.LoadTransaction(context.Background(), "9"))
	h.orch.Wait()

	names := h.recorder.ofType(store.TransactionAddDelegateName)
	require.Len(t, names, 2)
	byArray := map[string]string{}
	for _, action := range names {
		data := action.Data.(store.DelegateNameData)
		require.Equal(t, "9", data.TransactionID)
		byArray[data.VoteArrayName] = data.Delegate.PublicKey
	}
	require.Equal(t, map[string]string{"added": "pkA", "deleted": "pkB"}, byArray)

	loadedAt := h.recorder.indexOf(store.TransactionLoaded)
	require.GreaterOrEqual(t, loadedAt, 0)
	for i, action := range h.recorder.all() {
		if action.Type == store.TransactionAddDelegateName {
			require.Less(t, loadedAt, i)
		}
	}

	detail := h.store.GetState().Transaction
	require.Equal(t, "name-pkA", detail.VotesName.Added[0].Username)
	require.Equal(t, "name-pkB", detail.VotesName.Deleted[0].Username)
}

func TestLoadTransactionDoesNotWaitForLookups(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.peer.transaction = func(id string) (*types.Transaction, error) {
		return &types.Transaction{ID: id, Votes: &types.Votes{Added: []string{"slow"}}}, nil
	}
	h.peer.delegate = func(publicKey string) (*types.Delegate, error) {
		<-release
		return &types.Delegate{PublicKey: publicKey}, nil
	}

	require.NoError(t, h.orch.LoadTransaction(context.Background(), "1"))
	require.Len(t, h.recorder.ofType(store.TransactionLoaded), 1)
	require.Empty(t, h.recorder.ofType(store.TransactionAddDelegateName))

	close(release)
	h.orch.Wait()
	require.Len(t, h.recorder.ofType(store.TransactionAddDelegateName), 1)
}

func TestLoadTransactionFailureSurfaced(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.orch.LoadTransaction(context.Background(), "404"))
	h.orch.Wait()

	failed := h.recorder.ofType(store.TransactionLoadFailed)
	require.Len(t, failed, 1)
	data := failed[0].Data.(store.LoadFailedData)
	require.Equal(t, "404", data.ID)
	require.Contains(t, data.Error, errPeerDown.Error())
	require.Equal(t, 0, h.peer.count("delegate"))
	require.Empty(t, h.recorder.ofType(store.TransactionLoaded))
	require.Equal(t, errPeerDown.Error(), h.store.GetState().Transaction.Error)
}

func TestLoadTransactionLookupFailureSwallowed(t *testing.T) {
	h := newHarness(t)
	h.peer.transaction = func(id string) (*types.Transaction, error) {
		return &types.Transaction{ID: id, Votes: &types.Votes{Added: []string{"ok"}, Deleted: []string{"bad"}}}, nil
	}
	h.peer.delegate = func(publicKey string) (*types.Delegate, error) {
		if publicKey == "bad" {
			return nil, errPeerDown
		}
		return &types.Delegate{PublicKey: publicKey, Username: "good"}, nil
	}

	require.NoError(t, h.orch.LoadTransaction(context.Background(), "5"))
	h.orch.Wait()

	names := h.recorder.ofType(store.TransactionAddDelegateName)
	require.Len(t, names, 1)
	require.Equal(t, store.VoteArrayAdded, names[0].Data.(store.DelegateNameData).VoteArrayName)
	require.Empty(t, h.store.GetState().Transaction.Error)
}

func TestLoadTransactionWithoutVotes(t *testing.T) {
	h := newHarness(t)
	h.peer.transaction = func(id string) (*types.Transaction, error) {
		return &types.Transaction{ID: id, Type: types.TxTypeSend, Amount: "100"}, nil
	}
	require.NoError(t, h.orch.LoadTransaction(context.Background(), "7"))
	h.orch.Wait()
	require.Equal(t, 0, h.peer.count("delegate"))
	require.Len(t, h.recorder.ofType(store.TransactionLoaded), 1)
}
