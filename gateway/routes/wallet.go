package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nanowallet/crypto"
	"nanowallet/peer"
	"nanowallet/store"
)

const walletRequestLimit = 64 << 10

type loginRequest struct {
	PublicKey string `json:"publicKey"`
}

type networkRequest struct {
	Network string `json:"network"`
}

type networkEntry struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Testnet bool   `json:"testnet,omitempty"`
	Active  bool   `json:"active"`
}

func (h *handlers) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.GetState())
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if _, err := crypto.AddressFromPublicKey(req.PublicKey); err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := h.session.Login(r.Context(), req.PublicKey)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err)
		return
	}
	if h.prefs != nil {
		if err := h.prefs.SetLastAddress(account.Address); err != nil {
			h.logger.Warn("persist last address failed", "error", err.Error())
		}
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listNetworks(w http.ResponseWriter, r *http.Request) {
	active := ""
	if node := h.store.GetState().Peers.Data; node != nil {
		active = node.Network
	}
	keys := h.networks.Keys()
	out := make([]networkEntry, 0, len(keys))
	for _, key := range keys {
		network := h.networks[key]
		out = append(out, networkEntry{
			Key:     key,
			Name:    network.Name,
			Code:    network.Code,
			Testnet: network.Testnet,
			Active:  key == active,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) setNetwork(w http.ResponseWriter, r *http.Request) {
	var req networkRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	key := strings.TrimSpace(req.Network)
	network, err := h.networks.Lookup(key)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	node, err := peer.NewNode(key, network)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	h.store.Dispatch(store.PeerSetAction(node))
	if h.prefs != nil {
		if err := h.prefs.SetDefaultNetwork(key); err != nil {
			writeInternalError(w, fmt.Errorf("persist network preference: %w", err))
			return
		}
	}
	h.logger.Info("network switched", "network", key)
	writeJSON(w, http.StatusOK, node)
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, walletRequestLimit))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		writeInternalError(w, fmt.Errorf("encode response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeAccepted(w http.ResponseWriter, action store.ActionType) {
	writeJSON(w, http.StatusAccepted, map[string]string{"dispatched": string(action)})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, err)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusInternalServerError, err)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	payload, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		payload = []byte(`{"error":"` + http.StatusText(status) + `"}`)
	}
	_, _ = w.Write(payload)
}
