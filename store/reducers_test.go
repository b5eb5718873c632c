package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanowallet/core/types"
)

func TestFiltersReducerDefaultsAndAddFilter(t *testing.T) {
	state := FiltersReducer(nil, Action{Type: TransactionsUpdated})
	require.Equal(t, types.FilterAll, state[types.FilterScopeTransactions])

	next := FiltersReducer(state, AddFilterAction(types.FilterScopeTransactions, types.FilterIncoming))
	require.Equal(t, types.FilterIncoming, next[types.FilterScopeTransactions])
	require.Equal(t, types.FilterAll, state[types.FilterScopeTransactions], "input state must not be mutated")

	unchanged := FiltersReducer(next, LoadingStartedAction("x"))
	require.Equal(t, next, unchanged)
}

func TestTransactionsFailedRemovesOnlyFailed(t *testing.T) {
	state := InitialState()
	state.Transactions.Pending = []types.Transaction{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	next, stale := Reduce(state, TransactionsFailedAction([]types.Transaction{{ID: "2"}}))
	require.False(t, stale)
	require.Equal(t, []types.Transaction{{ID: "1"}, {ID: "3"}}, next.Transactions.Pending)
}

func TestTransactionsInitStalenessGuard(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, TransactionInitAction("A", "req-1"))
	state, _ = Reduce(state, TransactionInitAction("B", "req-2"))

	next, stale := Reduce(state, TransactionsInitAction(AccountDataResult{Address: "A", Count: 3, RequestID: "req-1"}))
	require.True(t, stale)
	require.False(t, next.Transactions.Loaded)
	require.Equal(t, "B", next.Transactions.RequestedAddress)

	next, stale = Reduce(state, TransactionsInitAction(AccountDataResult{
		Address:   "B",
		Confirmed: []types.Transaction{{ID: "t1"}},
		Count:     1,
		Balance:   "700",
		RequestID: "req-2",
	}))
	require.False(t, stale)
	require.True(t, next.Transactions.Loaded)
	require.Equal(t, "B", next.Transactions.Account.Address)
	require.Equal(t, types.Amount("700"), next.Transactions.Account.Balance)
	require.Nil(t, next.Transactions.Account.Delegate)
	require.Equal(t, 1, next.Transactions.Count)
}

func TestTransactionsInitDropsConfirmedPending(t *testing.T) {
	state := InitialState()
	state.Transactions.Pending = []types.Transaction{{ID: "p1"}, {ID: "p2"}}
	state, _ = Reduce(state, TransactionInitAction("A", "r"))
	next, _ := Reduce(state, TransactionsInitAction(AccountDataResult{
		Address:   "A",
		Confirmed: []types.Transaction{{ID: "p1"}, {ID: "x"}},
		Count:     2,
		RequestID: "r",
	}))
	require.Equal(t, []types.Transaction{{ID: "p2"}}, next.Transactions.Pending)
}

func TestTransactionsFilteredIgnoresOtherAddress(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, TransactionInitAction("X", "r"))
	state, _ = Reduce(state, TransactionsInitAction(AccountDataResult{Address: "X", RequestID: "r"}))

	next, stale := Reduce(state, TransactionsFilteredAction(FilteredData{Address: "Y", Count: 9}))
	require.True(t, stale)
	require.Equal(t, 0, next.Transactions.Count)

	next, stale = Reduce(state, TransactionsFilteredAction(FilteredData{
		Address:   "X",
		Confirmed: []types.Transaction{{ID: "t1"}, {ID: "t2"}},
		Count:     2,
		Filter:    types.FilterIncoming,
	}))
	require.False(t, stale)
	require.Equal(t, 2, next.Transactions.Count)
	require.Equal(t, types.FilterIncoming, next.Transactions.Filter)
	require.Len(t, next.Transactions.Confirmed, 2)
}

func TestTransactionDetailDelegateNames(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, TransactionLoadRequestedAction("9"))
	tx := &types.Transaction{ID: "9", Type: types.TxTypeVote}
	state, stale := Reduce(state, TransactionLoadedAction(tx))
	require.False(t, stale)
	require.Equal(t, "9", state.Transaction.Transaction.ID)

	state, stale = Reduce(state, TransactionAddDelegateNameAction("9", types.Delegate{Username: "a", PublicKey: "pkA"}, VoteArrayAdded))
	require.False(t, stale)
	state, _ = Reduce(state, TransactionAddDelegateNameAction("9", types.Delegate{Username: "b", PublicKey: "pkB"}, VoteArrayDeleted))
	require.Equal(t, "a", state.Transaction.VotesName.Added[0].Username)
	require.Equal(t, "b", state.Transaction.VotesName.Deleted[0].Username)

	_, stale = Reduce(state, TransactionAddDelegateNameAction("8", types.Delegate{Username: "c"}, VoteArrayAdded))
	require.True(t, stale)
}

func TestTransactionLoadedForOlderRequestIsStale(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, TransactionLoadRequestedAction("1"))
	state, _ = Reduce(state, TransactionLoadRequestedAction("2"))
	next, stale := Reduce(state, TransactionLoadedAction(&types.Transaction{ID: "1"}))
	require.True(t, stale)
	require.Nil(t, next.Transaction.Transaction)

	next, stale = Reduce(state, TransactionLoadFailedAction("2", errTest("boom")))
	require.False(t, stale)
	require.Equal(t, "boom", next.Transaction.Error)
}

func TestReloadedTransactionListsEachDelegateOnce(t *testing.T) {
	state := InitialState()
	tx := &types.Transaction{ID: "v1", Type: types.TxTypeVote}
	state, _ = Reduce(state, TransactionLoadRequestedAction("v1"))
	state, _ = Reduce(state, TransactionLoadedAction(tx))
	state, _ = Reduce(state, TransactionLoadRequestedAction("v1"))
	state, _ = Reduce(state, TransactionLoadedAction(tx))

	delegate := types.Delegate{Username: "genesis_1", PublicKey: "pkA"}
	state, stale := Reduce(state, TransactionAddDelegateNameAction("v1", delegate, VoteArrayAdded))
	require.False(t, stale)
	state, stale = Reduce(state, TransactionAddDelegateNameAction("v1", delegate, VoteArrayAdded))
	require.True(t, stale)
	require.Len(t, state.Transaction.VotesName.Added, 1)

	state, stale = Reduce(state, TransactionAddDelegateNameAction("v1", delegate, VoteArrayDeleted))
	require.False(t, stale)
	require.Len(t, state.Transaction.VotesName.Deleted, 1)
}

func TestOverlappingLoadsKeepIndicator(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, LoadingStartedAction(LoadingKeyTransactionsInit))
	state, _ = Reduce(state, LoadingStartedAction(LoadingKeyTransactionsInit))
	state, _ = Reduce(state, LoadingFinishedAction(LoadingKeyTransactionsInit))
	require.True(t, state.IsLoading(LoadingKeyTransactionsInit))
	state, _ = Reduce(state, LoadingFinishedAction(LoadingKeyTransactionsInit))
	require.False(t, state.IsLoading(LoadingKeyTransactionsInit))
	require.Empty(t, state.Loading)

	unchanged, _ := Reduce(state, LoadingFinishedAction(LoadingKeyTransactionsInit))
	require.Empty(t, unchanged.Loading)
}

func TestLoadingStartedAndFinished(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, LoadingStartedAction(LoadingKeyTransactionsInit))
	require.True(t, state.IsLoading(LoadingKeyTransactionsInit))
	state, _ = Reduce(state, LoadingFinishedAction(LoadingKeyTransactionsInit))
	require.False(t, state.IsLoading(LoadingKeyTransactionsInit))
	require.Empty(t, state.Loading)
}

func TestPendingAddAndRestore(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, TransactionAddedAction(types.Transaction{ID: "a"}))
	state, _ = Reduce(state, TransactionAddedAction(types.Transaction{ID: "a"}))
	state, _ = Reduce(state, TransactionAddedAction(types.Transaction{ID: "b"}))
	require.Equal(t, []types.Transaction{{ID: "b"}, {ID: "a"}}, state.Transactions.Pending)

	state, _ = Reduce(state, PendingRestoredAction([]types.Transaction{{ID: "a"}, {ID: "c"}}))
	require.Equal(t, []types.Transaction{{ID: "b"}, {ID: "a"}, {ID: "c"}}, state.Transactions.Pending)
}

func TestSessionActions(t *testing.T) {
	state := InitialState()
	account := &types.Account{Address: "1L", PublicKey: "pk", Balance: "5"}
	state, _ = Reduce(state, AccountLoggedInAction(account))
	require.Equal(t, "1L", state.Account.Address)
	account.Address = "mutated"
	require.Equal(t, "1L", state.Account.Address)

	state.Transactions.Pending = []types.Transaction{{ID: "p"}}
	state, _ = Reduce(state, AccountLoggedOutAction())
	require.Nil(t, state.Account)
	require.Empty(t, state.Transactions.Pending)
}

func TestLoginAsOtherAccountResetsView(t *testing.T) {
	state := InitialState()
	state, _ = Reduce(state, AccountLoggedInAction(&types.Account{Address: "1L"}))
	state, _ = Reduce(state, TransactionAddedAction(types.Transaction{ID: "a1"}))
	state, _ = Reduce(state, TransactionLoadRequestedAction("tx"))

	same, _ := Reduce(state, AccountLoggedInAction(&types.Account{Address: "1L", Balance: "9"}))
	require.Equal(t, []types.Transaction{{ID: "a1"}}, same.Transactions.Pending)
	require.Equal(t, "tx", same.Transaction.RequestedID)

	other, _ := Reduce(state, AccountLoggedInAction(&types.Account{Address: "2L"}))
	require.Equal(t, "2L", other.Account.Address)
	require.Empty(t, other.Transactions.Pending)
	require.Empty(t, other.Transactions.Confirmed)
	require.Empty(t, other.Transaction.RequestedID)
}

type errTest string

func (e errTest) Error() string { return string(e) }
