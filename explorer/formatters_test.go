package explorer

import (
	"testing"

	"nanowallet/core/types"
)

func TestFormatAmount(t *testing.T) {
	cases := map[types.Amount]string{
		"":                     "0",
		"0":                    "0",
		"1":                    "0.00000001",
		"100000000":            "1",
		"12550000000":          "125.5",
		"10000000000000001":    "100000000.00000001",
		"99999999999999999999": "999999999999.99999999",
	}
	for input, want := range cases {
		got, err := FormatAmount(input)
		if err != nil {
			t.Fatalf("format %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("format %q: want %s got %s", input, want, got)
		}
	}
	if _, err := FormatAmount("-5"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestTransferLabel(t *testing.T) {
	sent := types.Transaction{Type: types.TxTypeSend, SenderID: "A", RecipientID: "B"}
	if got := TransferLabel(sent, "A"); got != "Sent LSK" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := TransferLabel(sent, "B"); got != "Received LSK" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := TransferLabel(types.Transaction{Type: types.TxTypeDelegate}, "A"); got != "Delegate Registration" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := TransferLabel(types.Transaction{Type: 42}, "A"); got != "Type 42" {
		t.Fatalf("unexpected label %q", got)
	}
}
