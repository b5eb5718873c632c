package types

// Delegate is the public identity of a delegate account.
type Delegate struct {
	Username       string  `json:"username"`
	Address        string  `json:"address,omitempty"`
	PublicKey      string  `json:"publicKey"`
	Vote           Amount  `json:"vote,omitempty"`
	Rate           int     `json:"rate,omitempty"`
	ProducedBlocks int64   `json:"producedblocks,omitempty"`
	MissedBlocks   int64   `json:"missedblocks,omitempty"`
	Approval       float64 `json:"approval,omitempty"`
	Productivity   float64 `json:"productivity,omitempty"`
}

// Clone returns a copy of the delegate, or nil.
func (d *Delegate) Clone() *Delegate {
	if d == nil {
		return nil
	}
	cloned := *d
	return &cloned
}

// Account is the account state reported by the peer for a single address.
type Account struct {
	Address            string    `json:"address"`
	PublicKey          string    `json:"publicKey,omitempty"`
	Balance            Amount    `json:"balance"`
	UnconfirmedBalance Amount    `json:"unconfirmedBalance,omitempty"`
	IsDelegate         bool      `json:"isDelegate,omitempty"`
	Delegate           *Delegate `json:"delegate,omitempty"`
}

// Clone returns a deep copy of the account, or nil.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cloned := *a
	cloned.Delegate = a.Delegate.Clone()
	return &cloned
}
