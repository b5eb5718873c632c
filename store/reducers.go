package store

import "nanowallet/core/types"

// Reduce applies action to state and returns the next state. stale is true
// when the action carried a result for a view that has since moved on and
// was therefore ignored.
func Reduce(state State, action Action) (next State, stale bool) {
	next = state
	next.Peers = peersReducer(state.Peers, action)
	next.Account = accountReducer(state.Account, action)
	var staleList, staleDetail bool
	next.Transactions, staleList = transactionsReducer(state.Transactions, action)
	next.Transaction, staleDetail = transactionReducer(state.Transaction, action)
	next.Filters = FiltersReducer(state.Filters, action)
	next.Loading = loadingReducer(state.Loading, action)
	if action.Type == AccountLoggedIn && accountSwitched(state.Account, next.Account) {
		next.Transactions = Transactions{
			Pending:   []types.Transaction{},
			Confirmed: []types.Transaction{},
		}
		next.Transaction = TransactionDetail{VotesName: emptyVotesName()}
	}
	return next, staleList || staleDetail
}

// accountSwitched reports a login replacing a different logged-in account.
// Pending transactions belong to the account that submitted them.
func accountSwitched(prev, next *types.Account) bool {
	if prev == nil || next == nil {
		return false
	}
	return prev.Address != next.Address
}

func peersReducer(state Peers, action Action) Peers {
	if action.Type != PeerSet {
		return state
	}
	data, ok := action.Data.(PeerSetData)
	if !ok {
		return state
	}
	return Peers{Data: data.Node.Clone()}
}

func accountReducer(state *types.Account, action Action) *types.Account {
	switch action.Type {
	case AccountLoggedIn:
		data, ok := action.Data.(LoggedInData)
		if !ok {
			return state
		}
		return data.Account.Clone()
	case AccountLoggedOut:
		return nil
	default:
		return state
	}
}

func transactionsReducer(state Transactions, action Action) (Transactions, bool) {
	switch action.Type {
	case TransactionInit:
		data, ok := action.Data.(InitData)
		if !ok {
			return state, false
		}
		return Transactions{
			Pending:          state.Pending,
			Confirmed:        []types.Transaction{},
			Filter:           types.FilterAll,
			RequestID:        data.RequestID,
			RequestedAddress: data.Address,
		}, false
	case TransactionsInit:
		data, ok := action.Data.(AccountDataResult)
		if !ok {
			return state, false
		}
		if data.RequestID != state.RequestID {
			return state, true
		}
		next := state
		next.Confirmed = nonNil(types.CloneTransactions(data.Confirmed))
		next.Count = data.Count
		next.Account = AccountView{
			Address:  data.Address,
			Balance:  data.Balance,
			Delegate: data.Delegate.Clone(),
		}
		next.Loaded = true
		next.Pending = withoutConfirmed(state.Pending, next.Confirmed)
		return next, false
	case TransactionsFiltered:
		data, ok := action.Data.(FilteredData)
		if !ok {
			return state, false
		}
		if data.Address != state.ViewedAddress() {
			return state, true
		}
		next := state
		next.Confirmed = nonNil(types.CloneTransactions(data.Confirmed))
		next.Count = data.Count
		next.Filter = data.Filter
		next.Pending = withoutConfirmed(state.Pending, next.Confirmed)
		return next, false
	case TransactionsFailed:
		data, ok := action.Data.(FailedData)
		if !ok {
			return state, false
		}
		next := state
		next.Pending = make([]types.Transaction, 0, len(state.Pending))
		for _, tx := range state.Pending {
			if !types.ContainsID(data.Failed, tx.ID) {
				next.Pending = append(next.Pending, tx)
			}
		}
		return next, false
	case TransactionAdded:
		data, ok := action.Data.(TransactionAddedData)
		if !ok || data.Transaction.ID == "" || types.ContainsID(state.Pending, data.Transaction.ID) {
			return state, false
		}
		next := state
		next.Pending = append([]types.Transaction{*data.Transaction.Clone()}, state.Pending...)
		return next, false
	case PendingRestored:
		data, ok := action.Data.(PendingRestoredData)
		if !ok {
			return state, false
		}
		next := state
		next.Pending = append([]types.Transaction{}, state.Pending...)
		for _, tx := range data.Transactions {
			if tx.ID == "" || types.ContainsID(next.Pending, tx.ID) {
				continue
			}
			next.Pending = append(next.Pending, *tx.Clone())
		}
		return next, false
	case AccountLoggedOut:
		return Transactions{
			Pending:   []types.Transaction{},
			Confirmed: []types.Transaction{},
		}, false
	default:
		return state, false
	}
}

func transactionReducer(state TransactionDetail, action Action) (TransactionDetail, bool) {
	switch action.Type {
	case TransactionLoadRequested:
		data, ok := action.Data.(LoadRequestedData)
		if !ok {
			return state, false
		}
		return TransactionDetail{RequestedID: data.ID, VotesName: emptyVotesName()}, false
	case TransactionLoaded:
		data, ok := action.Data.(LoadedData)
		if !ok || data.Transaction == nil {
			return state, false
		}
		if state.RequestedID != "" && state.RequestedID != data.Transaction.ID {
			return state, true
		}
		return TransactionDetail{
			RequestedID: state.RequestedID,
			Transaction: data.Transaction.Clone(),
			VotesName:   emptyVotesName(),
		}, false
	case TransactionLoadFailed:
		data, ok := action.Data.(LoadFailedData)
		if !ok {
			return state, false
		}
		if state.RequestedID != "" && state.RequestedID != data.ID {
			return state, true
		}
		return TransactionDetail{
			RequestedID: state.RequestedID,
			VotesName:   emptyVotesName(),
			Error:       data.Error,
		}, false
	case TransactionAddDelegateName:
		data, ok := action.Data.(DelegateNameData)
		if !ok {
			return state, false
		}
		if state.Transaction == nil || state.Transaction.ID != data.TransactionID {
			return state, true
		}
		next := state
		switch data.VoteArrayName {
		case VoteArrayAdded:
			if hasDelegate(state.VotesName.Added, data.Delegate) {
				return state, true
			}
			next.VotesName.Added = append(append([]types.Delegate{}, state.VotesName.Added...), data.Delegate)
		case VoteArrayDeleted:
			if hasDelegate(state.VotesName.Deleted, data.Delegate) {
				return state, true
			}
			next.VotesName.Deleted = append(append([]types.Delegate{}, state.VotesName.Deleted...), data.Delegate)
		}
		return next, false
	case AccountLoggedOut:
		return TransactionDetail{VotesName: emptyVotesName()}, false
	default:
		return state, false
	}
}

func loadingReducer(state []string, action Action) []string {
	switch action.Type {
	case LoadingStarted:
		data, ok := action.Data.(LoadingData)
		if !ok {
			return state
		}
		return append(append([]string{}, state...), data.Key)
	case LoadingFinished:
		data, ok := action.Data.(LoadingData)
		if !ok {
			return state
		}
		// One finish clears one start; overlapping runs keep the key set.
		for i := len(state) - 1; i >= 0; i-- {
			if state[i] == data.Key {
				next := make([]string, 0, len(state)-1)
				next = append(next, state[:i]...)
				return append(next, state[i+1:]...)
			}
		}
		return state
	default:
		return state
	}
}

// hasDelegate matches by public key. A lookup left over from an earlier load
// of the same transaction resolves to a delegate that is already listed.
func hasDelegate(list []types.Delegate, delegate types.Delegate) bool {
	if delegate.PublicKey == "" {
		return false
	}
	for _, existing := range list {
		if existing.PublicKey == delegate.PublicKey {
			return true
		}
	}
	return false
}

func withoutConfirmed(pending, confirmed []types.Transaction) []types.Transaction {
	next := make([]types.Transaction, 0, len(pending))
	for _, tx := range pending {
		if !types.ContainsID(confirmed, tx.ID) {
			next = append(next, tx)
		}
	}
	return next
}

func nonNil(txs []types.Transaction) []types.Transaction {
	if txs == nil {
		return []types.Transaction{}
	}
	return txs
}
