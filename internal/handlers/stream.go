package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/realtime"
	"github.com/jarboard/backend/internal/requestdata"
)

const heartbeatInterval = 15 * time.Second

// StreamHandler serves the SSE endpoint: one realtime.Session per connected
// client, filtered to the authenticated user and the requested tables.
type StreamHandler struct {
	log *logger.Logger
	bus *realtime.Bus
}

func NewStreamHandler(log *logger.Logger, bus *realtime.Bus) *StreamHandler {
	return &StreamHandler{log: log.With("handler", "StreamHandler"), bus: bus}
}

// Stream handles GET /stream?tables=todo,jar. Omitting tables subscribes to
// every change-captured table.
func (sh *StreamHandler) Stream(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tables, err := parseTablesParam(c.Query("tables"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_tables", err)
		return
	}

	session := realtime.NewSession(sh.bus, userID, tables)
	defer session.Close()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}
	flusher.Flush()

	sh.log.Debug("stream opened", "session_id", session.ID, "user_id", userID, "tables", tables)

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	events := make(chan realtime.ChangeEvent)
	errs := make(chan error, 1)
	go func() {
		for {
			ev, err := session.Next(ctx)
			if err != nil {
				errs <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			sh.log.Debug("stream client gone", "session_id", session.ID, "err", ctx.Err())
			return
		case err := <-errs:
			if !errors.Is(err, realtime.ErrSessionClosed) && !errors.Is(err, ctx.Err()) {
				sh.log.Warn("stream session error", "session_id", session.ID, "error", err)
			}
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				sh.log.Warn("marshal change event failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func parseTablesParam(raw string) ([]realtime.Table, error) {
	if strings.TrimSpace(raw) == "" {
		return realtime.AllTables(), nil
	}
	var tables []realtime.Table
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		table, ok := realtime.ParseTable(part)
		if !ok {
			return nil, fmt.Errorf("unknown table %q", part)
		}
		tables = append(tables, table)
	}
	if len(tables) == 0 {
		return realtime.AllTables(), nil
	}
	return tables, nil
}
