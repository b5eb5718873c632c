package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"nanowallet/observability"
	"nanowallet/store"
)

const wsWriteTimeout = 10 * time.Second

// stream pushes every applied store action to a websocket client. Clients
// resume with ?cursor=<sequence> to replay retained updates they missed.
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	subscriber := uuid.NewString()
	metrics := observability.Stream()
	metrics.SubscriberConnected()
	defer metrics.SubscriberDisconnected()
	logger := h.logger.With("subscriber", subscriber)
	logger.Debug("stream subscriber connected", "cursor", cursor)

	ctx := conn.CloseRead(r.Context())
	if err := h.streamUpdates(ctx, conn, cursor); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			logger.Warn("stream closed with error", "error", err.Error())
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (h *handlers) streamUpdates(ctx context.Context, conn *websocket.Conn, cursor string) error {
	updates, cancel, backlog, err := h.store.Subscribe(ctx, cursor)
	if err != nil {
		_ = conn.Close(websocket.StatusPolicyViolation, err.Error())
		return err
	}
	defer cancel()

	for _, update := range backlog {
		if err := writeUpdate(ctx, conn, update); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeUpdate(ctx, conn, update); err != nil {
				return err
			}
		}
	}
}

func writeUpdate(ctx context.Context, conn *websocket.Conn, update store.Update) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return err
	}
	observability.Stream().RecordAction(string(update.Action.Type))
	return nil
}
