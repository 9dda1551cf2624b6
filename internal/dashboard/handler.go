package dashboard

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/taskflow/taskflow/internal/store"
	"github.com/taskflow/taskflow/internal/sync"
)

// Handler bridges store changes and sync status transitions onto the
// WebSocket feed. Register it with store.OnChange and syncer.OnStatusChange.
type Handler struct {
	server *Server
	board  *store.Store
	logger *log.Logger
}

// NewHandler creates a handler that broadcasts through server and reads
// counts from board.
func NewHandler(server *Server, board *store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
	}
	return &Handler{server: server, board: board, logger: logger}
}

// OnChange broadcasts a board mutation followed by refreshed stats.
func (h *Handler) OnChange(ch store.Change) {
	data, err := json.Marshal(ItemUpdateData{
		Action:   string(ch.Kind),
		ItemType: string(ch.ItemType),
		ItemID:   ch.ItemID,
		Title:    ch.Title,
	})
	if err != nil {
		h.logger.Printf("failed to encode change: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeItemUpdate,
		Timestamp: time.Now(),
		Data:      data,
	})
	h.broadcastStats()
}

// OnSyncStatus broadcasts a sync status transition.
func (h *Handler) OnSyncStatus(status sync.Status) {
	data, err := json.Marshal(SyncStatusData{Status: string(status)})
	if err != nil {
		h.logger.Printf("failed to encode sync status: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncStatus,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// Snapshot returns the board document for the connect-time payload.
func (h *Handler) Snapshot() json.RawMessage {
	data, err := json.Marshal(h.board.Snapshot())
	if err != nil {
		h.logger.Printf("failed to encode board: %v", err)
		return json.RawMessage("{}")
	}
	return data
}

func (h *Handler) broadcastStats() {
	st := h.board.Stats()
	byStatus := make(map[string]int, len(st.ByStatus))
	for status, n := range st.ByStatus {
		byStatus[string(status)] = n
	}

	data, err := json.Marshal(StatsData{
		Tasks:    st.Tasks,
		Notes:    st.Notes,
		Versions: st.Versions,
		ByStatus: byStatus,
	})
	if err != nil {
		h.logger.Printf("failed to encode stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      data,
	})
}
