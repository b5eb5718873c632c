package store

import (
	"nanowallet/core/types"
	"nanowallet/peer"
)

// Peers holds the node workflows talk to.
type Peers struct {
	Data *peer.Node `json:"data,omitempty"`
}

// AccountView is the account summary shown above the transaction list.
type AccountView struct {
	Address  string          `json:"address"`
	Balance  types.Amount    `json:"balance"`
	Delegate *types.Delegate `json:"delegate,omitempty"`
}

// Transactions is the transaction list view for one address.
type Transactions struct {
	Pending   []types.Transaction `json:"pending"`
	Confirmed []types.Transaction `json:"confirmed"`
	Count     int                 `json:"count"`
	Filter    types.Filter        `json:"filter"`
	Account   AccountView         `json:"account"`
	Loaded    bool                `json:"loaded"`
	// RequestID and RequestedAddress identify the initialize-view run whose
	// results the view accepts.
	RequestID        string `json:"requestId,omitempty"`
	RequestedAddress string `json:"requestedAddress,omitempty"`
}

// ViewedAddress is the address the list currently belongs to.
func (t Transactions) ViewedAddress() string {
	if t.Account.Address != "" {
		return t.Account.Address
	}
	return t.RequestedAddress
}

// VotesName holds delegates resolved for the vote lists of the loaded transaction.
type VotesName struct {
	Added   []types.Delegate `json:"added"`
	Deleted []types.Delegate `json:"deleted"`
}

// TransactionDetail is the single-transaction view.
type TransactionDetail struct {
	RequestedID string             `json:"requestedId,omitempty"`
	Transaction *types.Transaction `json:"transaction,omitempty"`
	VotesName   VotesName          `json:"votesName"`
	Error       string             `json:"error,omitempty"`
}

// State is the full wallet view.
type State struct {
	Peers        Peers                   `json:"peers"`
	Account      *types.Account          `json:"account,omitempty"`
	Transactions Transactions            `json:"transactions"`
	Transaction  TransactionDetail       `json:"transaction"`
	Filters      map[string]types.Filter `json:"filters"`
	Loading      []string                `json:"loading"`
}

// InitialState returns the state before any action is applied.
func InitialState() State {
	return State{
		Transactions: Transactions{
			Pending:   []types.Transaction{},
			Confirmed: []types.Transaction{},
		},
		Transaction: TransactionDetail{VotesName: emptyVotesName()},
		Filters:     FiltersInitialState(),
		Loading:     []string{},
	}
}

// Clone returns a deep copy so callers can read it without holding the store lock.
func (s State) Clone() State {
	cloned := s
	cloned.Peers.Data = s.Peers.Data.Clone()
	cloned.Account = s.Account.Clone()
	cloned.Transactions.Pending = types.CloneTransactions(s.Transactions.Pending)
	cloned.Transactions.Confirmed = types.CloneTransactions(s.Transactions.Confirmed)
	cloned.Transactions.Account.Delegate = s.Transactions.Account.Delegate.Clone()
	cloned.Transaction.Transaction = s.Transaction.Transaction.Clone()
	cloned.Transaction.VotesName = VotesName{
		Added:   append([]types.Delegate{}, s.Transaction.VotesName.Added...),
		Deleted: append([]types.Delegate{}, s.Transaction.VotesName.Deleted...),
	}
	cloned.Filters = make(map[string]types.Filter, len(s.Filters))
	for key, value := range s.Filters {
		cloned.Filters[key] = value
	}
	cloned.Loading = append([]string{}, s.Loading...)
	return cloned
}

// IsLoading reports whether key is among the active loading indicators.
func (s State) IsLoading(key string) bool {
	for _, item := range s.Loading {
		if item == key {
			return true
		}
	}
	return false
}

func emptyVotesName() VotesName {
	return VotesName{Added: []types.Delegate{}, Deleted: []types.Delegate{}}
}
