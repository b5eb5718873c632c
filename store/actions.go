package store

import (
	"nanowallet/core/types"
	"nanowallet/peer"
)

// ActionType names a state transition.
type ActionType string

// Triggers. Reducers leave state untouched for these; the orchestrator hook
// starts the matching workflow.
const (
	TransactionsUpdated      ActionType = "TransactionsUpdated"
	TransactionsFilterSet    ActionType = "TransactionsFilterSet"
	TransactionsRequestInit  ActionType = "TransactionsRequestInit"
	TransactionLoadRequested ActionType = "TransactionLoadRequested"
)

// Workflow results.
const (
	TransactionsFailed         ActionType = "TransactionsFailed"
	TransactionsFiltered       ActionType = "TransactionsFiltered"
	TransactionsInit           ActionType = "TransactionsInit"
	TransactionLoaded          ActionType = "TransactionLoaded"
	TransactionLoadFailed      ActionType = "TransactionLoadFailed"
	TransactionAddDelegateName ActionType = "TransactionAddDelegateName"
	TransactionInit            ActionType = "TransactionInit"
	AddFilter                  ActionType = "AddFilter"
	LoadingStarted             ActionType = "LoadingStarted"
	LoadingFinished            ActionType = "LoadingFinished"
)

// Session and network.
const (
	AccountLoggedIn  ActionType = "AccountLoggedIn"
	AccountLoggedOut ActionType = "AccountLoggedOut"
	PeerSet          ActionType = "PeerSet"
	TransactionAdded ActionType = "TransactionAdded"
	PendingRestored  ActionType = "PendingRestored"
)

// LoadingKeyTransactionsInit tracks the initialize-view workflow.
const LoadingKeyTransactionsInit = "transactions-init"

// Vote array names carried by TransactionAddDelegateName.
const (
	VoteArrayAdded   = "added"
	VoteArrayDeleted = "deleted"
)

// Action is a message applied by the reducers.
type Action struct {
	Type ActionType `json:"type"`
	Data any        `json:"data,omitempty"`
}

type FilterSetData struct {
	Filter types.Filter `json:"filter"`
}

type RequestInitData struct {
	Address string `json:"address"`
}

type LoadRequestedData struct {
	ID string `json:"id"`
}

type FailedData struct {
	Failed []types.Transaction `json:"failed"`
}

type FilteredData struct {
	Address   string              `json:"address"`
	Confirmed []types.Transaction `json:"confirmed"`
	Count     int                 `json:"count"`
	Filter    types.Filter        `json:"filter"`
}

// AccountDataResult is the merged outcome of the initialize-view workflow.
type AccountDataResult struct {
	Address   string              `json:"address"`
	Confirmed []types.Transaction `json:"confirmed"`
	Count     int                 `json:"count"`
	Balance   types.Amount        `json:"balance"`
	Delegate  *types.Delegate     `json:"delegate,omitempty"`
	RequestID string              `json:"requestId"`
}

type LoadedData struct {
	Transaction *types.Transaction `json:"transaction"`
}

type LoadFailedData struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type DelegateNameData struct {
	TransactionID string         `json:"transactionId"`
	Delegate      types.Delegate `json:"delegate"`
	VoteArrayName string         `json:"voteArrayName"`
}

type InitData struct {
	Address   string `json:"address"`
	RequestID string `json:"requestId"`
}

type AddFilterData struct {
	FilterName string       `json:"filterName"`
	Value      types.Filter `json:"value"`
}

type LoadingData struct {
	Key string `json:"key"`
}

type LoggedInData struct {
	Account *types.Account `json:"account"`
}

type PeerSetData struct {
	Node *peer.Node `json:"node"`
}

type TransactionAddedData struct {
	Transaction types.Transaction `json:"transaction"`
}

type PendingRestoredData struct {
	Transactions []types.Transaction `json:"transactions"`
}

func TransactionsUpdatedAction() Action {
	return Action{Type: TransactionsUpdated}
}

func TransactionsFilterSetAction(filter types.Filter) Action {
	return Action{Type: TransactionsFilterSet, Data: FilterSetData{Filter: filter}}
}

func TransactionsRequestInitAction(address string) Action {
	return Action{Type: TransactionsRequestInit, Data: RequestInitData{Address: address}}
}

func TransactionLoadRequestedAction(id string) Action {
	return Action{Type: TransactionLoadRequested, Data: LoadRequestedData{ID: id}}
}

func TransactionsFailedAction(failed []types.Transaction) Action {
	return Action{Type: TransactionsFailed, Data: FailedData{Failed: failed}}
}

func TransactionsFilteredAction(data FilteredData) Action {
	return Action{Type: TransactionsFiltered, Data: data}
}

func TransactionsInitAction(result AccountDataResult) Action {
	return Action{Type: TransactionsInit, Data: result}
}

func TransactionLoadedAction(tx *types.Transaction) Action {
	return Action{Type: TransactionLoaded, Data: LoadedData{Transaction: tx}}
}

func TransactionLoadFailedAction(id string, err error) Action {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return Action{Type: TransactionLoadFailed, Data: LoadFailedData{ID: id, Error: message}}
}

func TransactionAddDelegateNameAction(transactionID string, delegate types.Delegate, voteArrayName string) Action {
	return Action{Type: TransactionAddDelegateName, Data: DelegateNameData{
		TransactionID: transactionID,
		Delegate:      delegate,
		VoteArrayName: voteArrayName,
	}}
}

func TransactionInitAction(address, requestID string) Action {
	return Action{Type: TransactionInit, Data: InitData{Address: address, RequestID: requestID}}
}

func AddFilterAction(filterName string, value types.Filter) Action {
	return Action{Type: AddFilter, Data: AddFilterData{FilterName: filterName, Value: value}}
}

func LoadingStartedAction(key string) Action {
	return Action{Type: LoadingStarted, Data: LoadingData{Key: key}}
}

func LoadingFinishedAction(key string) Action {
	return Action{Type: LoadingFinished, Data: LoadingData{Key: key}}
}

func AccountLoggedInAction(account *types.Account) Action {
	return Action{Type: AccountLoggedIn, Data: LoggedInData{Account: account}}
}

func AccountLoggedOutAction() Action {
	return Action{Type: AccountLoggedOut}
}

func PeerSetAction(node *peer.Node) Action {
	return Action{Type: PeerSet, Data: PeerSetData{Node: node}}
}

func TransactionAddedAction(tx types.Transaction) Action {
	return Action{Type: TransactionAdded, Data: TransactionAddedData{Transaction: tx}}
}

func PendingRestoredAction(txs []types.Transaction) Action {
	return Action{Type: PendingRestored, Data: PendingRestoredData{Transactions: txs}}
}
