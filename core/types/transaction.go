package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TxType identifies the purpose of a transaction on the peer API.
type TxType int

const (
	TxTypeSend            TxType = 0 // Plain token transfer
	TxTypeSecondSignature TxType = 1 // Registers a second passphrase
	TxTypeDelegate        TxType = 2 // Registers the sender as a delegate
	TxTypeVote            TxType = 3 // Adds or removes delegate votes
	TxTypeMultisignature  TxType = 4
	TxTypeDapp            TxType = 5
)

// Amount is a beddows value as reported by the peer. Peers are inconsistent
// about quoting numeric fields, so both JSON numbers and strings are accepted
// and the decimal text is kept verbatim.
type Amount string

// UnmarshalJSON accepts `100`, `"100"` and `null`.
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// String returns the raw decimal text.
func (a Amount) String() string { return string(a) }

// Votes lists the delegate public keys touched by a vote transaction.
type Votes struct {
	Added   []string `json:"added,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}

// Transaction is a transaction record as returned by the peer. Fields the
// orchestration pipeline does not interpret are carried through untouched.
type Transaction struct {
	ID              string          `json:"id"`
	Type            TxType          `json:"type"`
	Amount          Amount          `json:"amount"`
	Fee             Amount          `json:"fee"`
	SenderID        string          `json:"senderId"`
	SenderPublicKey string          `json:"senderPublicKey,omitempty"`
	RecipientID     string          `json:"recipientId,omitempty"`
	Timestamp       int64           `json:"timestamp"`
	Height          int64           `json:"height,omitempty"`
	BlockID         string          `json:"blockId,omitempty"`
	Confirmations   int64           `json:"confirmations,omitempty"`
	Votes           *Votes          `json:"votes,omitempty"`
	Asset           json.RawMessage `json:"asset,omitempty"`
}

// AddedVotes returns the public keys of delegates voted for, or an empty slice.
func (tx *Transaction) AddedVotes() []string {
	if tx == nil || tx.Votes == nil {
		return []string{}
	}
	return append([]string{}, tx.Votes.Added...)
}

// DeletedVotes returns the public keys of delegates unvoted, or an empty slice.
func (tx *Transaction) DeletedVotes() []string {
	if tx == nil || tx.Votes == nil {
		return []string{}
	}
	return append([]string{}, tx.Votes.Deleted...)
}

// Clone returns a deep copy of the transaction.
func (tx *Transaction) Clone() *Transaction {
	if tx == nil {
		return nil
	}
	cloned := *tx
	if tx.Votes != nil {
		cloned.Votes = &Votes{
			Added:   append([]string(nil), tx.Votes.Added...),
			Deleted: append([]string(nil), tx.Votes.Deleted...),
		}
	}
	if tx.Asset != nil {
		cloned.Asset = append(json.RawMessage(nil), tx.Asset...)
	}
	return &cloned
}

// CloneTransactions deep copies a transaction list.
func CloneTransactions(txs []Transaction) []Transaction {
	if txs == nil {
		return nil
	}
	out := make([]Transaction, len(txs))
	for i := range txs {
		out[i] = *txs[i].Clone()
	}
	return out
}

// ContainsID reports whether a transaction with the given id is in the list.
func ContainsID(txs []Transaction, id string) bool {
	for i := range txs {
		if txs[i].ID == id {
			return true
		}
	}
	return false
}
