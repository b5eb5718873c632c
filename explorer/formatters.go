package explorer

import (
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"nanowallet/core/types"
)

// Ticker is the display symbol of the native token.
const Ticker = "LSK"

// Decimals is the number of beddows digits in one LSK.
const Decimals = 8

// Epoch is the chain genesis time transaction timestamps count from.
var Epoch = time.Date(2016, time.May, 24, 17, 0, 0, 0, time.UTC)

var beddowsPerToken = uint256.NewInt(100_000_000)

// FormatAmount renders a beddows amount as a decimal token value with
// trailing zeros trimmed, e.g. "12550000000" becomes "125.5".
func FormatAmount(amount types.Amount) (string, error) {
	raw := strings.TrimSpace(amount.String())
	if raw == "" {
		return "0", nil
	}
	value, err := uint256.FromDecimal(raw)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", raw, err)
	}
	whole, frac := new(uint256.Int), new(uint256.Int)
	whole.DivMod(value, beddowsPerToken, frac)
	if frac.IsZero() {
		return whole.Dec(), nil
	}
	fraction := fmt.Sprintf("%0*d", Decimals, frac.Uint64())
	return whole.Dec() + "." + strings.TrimRight(fraction, "0"), nil
}

// Timestamp converts a chain timestamp into wall-clock time.
func Timestamp(seconds int64) time.Time {
	return Epoch.Add(time.Duration(seconds) * time.Second)
}

// Direction reports how a transaction relates to the viewed address.
func Direction(tx types.Transaction, address string) string {
	switch {
	case tx.SenderID == address && tx.RecipientID == address:
		return "self"
	case tx.RecipientID == address:
		return "in"
	default:
		return "out"
	}
}

// TransferLabel returns the explorer label for a transaction seen from address.
func TransferLabel(tx types.Transaction, address string) string {
	switch tx.Type {
	case types.TxTypeSend:
		if Direction(tx, address) == "in" {
			return "Received " + Ticker
		}
		return "Sent " + Ticker
	case types.TxTypeSecondSignature:
		return "Second Signature Creation"
	case types.TxTypeDelegate:
		return "Delegate Registration"
	case types.TxTypeVote:
		return "Vote"
	case types.TxTypeMultisignature:
		return "Multisignature Creation"
	case types.TxTypeDapp:
		return "Dapp Registration"
	default:
		return fmt.Sprintf("Type %d", tx.Type)
	}
}
