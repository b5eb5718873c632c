package routes

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"nanowallet/core/types"
	"nanowallet/crypto"
	"nanowallet/explorer"
	"nanowallet/store"
)

type filterRequest struct {
	Filter *types.Filter `json:"filter"`
}

type transactionResponse struct {
	Transaction *types.Transaction `json:"transaction,omitempty"`
	VotesName   store.VotesName    `json:"votesName"`
	Label       string             `json:"label,omitempty"`
	Amount      string             `json:"amount,omitempty"`
	Error       string             `json:"error,omitempty"`
}

func (h *handlers) initTransactions(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "address")
	address, err := crypto.NormalizeAddress(raw)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("%w: %q", err, strings.TrimSpace(raw)))
		return
	}
	h.store.Dispatch(store.TransactionsRequestInitAction(address))
	writeAccepted(w, store.TransactionsRequestInit)
}

func (h *handlers) setFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.Filter == nil {
		writeBadRequest(w, errors.New("filter required"))
		return
	}
	h.store.Dispatch(store.TransactionsFilterSetAction(*req.Filter))
	writeAccepted(w, store.TransactionsFilterSet)
}

func (h *handlers) submitPending(w http.ResponseWriter, r *http.Request) {
	var tx types.Transaction
	if err := decodeBody(r, &tx); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.session.SubmitPending(tx); err != nil {
		writeBadRequest(w, err)
		return
	}
	writeAccepted(w, store.TransactionAdded)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	h.store.Dispatch(store.TransactionsUpdatedAction())
	writeAccepted(w, store.TransactionsUpdated)
}

func (h *handlers) loadTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeBadRequest(w, errors.New("transaction id required"))
		return
	}
	h.store.Dispatch(store.TransactionLoadRequestedAction(id))
	writeAccepted(w, store.TransactionLoadRequested)
}

// getTransaction serves the detail view when it holds the requested id.
func (h *handlers) getTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	state := h.store.GetState()
	detail := state.Transaction
	switch {
	case detail.Transaction != nil && detail.Transaction.ID == id:
		resp := transactionResponse{
			Transaction: detail.Transaction,
			VotesName:   detail.VotesName,
			Label:       explorer.TransferLabel(*detail.Transaction, state.Transactions.ViewedAddress()),
		}
		if amount, err := explorer.FormatAmount(detail.Transaction.Amount); err == nil {
			resp.Amount = amount
		}
		writeJSON(w, http.StatusOK, resp)
	case detail.RequestedID == id && detail.Error != "":
		writeJSON(w, http.StatusBadGateway, transactionResponse{VotesName: detail.VotesName, Error: detail.Error})
	case detail.RequestedID == id:
		writeJSON(w, http.StatusAccepted, transactionResponse{VotesName: detail.VotesName})
	default:
		writeJSONError(w, http.StatusNotFound, fmt.Errorf("transaction %s not loaded", id))
	}
}

func (h *handlers) exportTransactions(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = explorer.FormatCSV
	}
	state := h.store.GetState()
	address := state.Transactions.ViewedAddress()
	if address == "" {
		writeJSONError(w, http.StatusConflict, errors.New("no transaction view loaded"))
		return
	}
	rows, err := explorer.BuildRows(address, state.Transactions.Pending, state.Transactions.Confirmed)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := explorer.Write(&buf, format, rows); err != nil {
		writeBadRequest(w, err)
		return
	}
	contentType := "text/csv"
	if format == explorer.FormatParquet {
		contentType = "application/vnd.apache.parquet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-transactions.%s"`, address, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
