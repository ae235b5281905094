package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-planner/internal/holiday"
	"github.com/p-n-ai/pai-planner/internal/plan"
	"github.com/p-n-ai/pai-planner/internal/planner"
)

const streamWriteTimeout = 10 * time.Second

// Stream message types.
const (
	MessageDay    = "day"
	MessageStatus = "status"
)

// StreamMessage is one websocket frame of a streamed plan: a calendar day
// with its entries, or the closing status.
type StreamMessage struct {
	Type    string          `json:"type"`
	Date    string          `json:"date,omitempty"`
	Entries []planner.Entry `json:"entries,omitempty"`
	Status  planner.Status  `json:"status,omitempty"`
	Days    int             `json:"days,omitempty"`
}

// groupByDate splits entries into per-date runs, keeping order.
func groupByDate(entries []planner.Entry) [][]planner.Entry {
	var out [][]planner.Entry
	for i := 0; i < len(entries); {
		j := i
		for j < len(entries) && entries[j].Date.Equal(entries[i].Date) {
			j++
		}
		out = append(out, entries[i:j])
		i = j
	}
	return out
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "plan_id", p.ID, "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	days := groupByDate(p.Result.Entries)
	for _, day := range days {
		msg := StreamMessage{
			Type:    MessageDay,
			Date:    day[0].Date.Format(holiday.DateLayout),
			Entries: day,
		}
		if err := writeMessage(ctx, c, msg); err != nil {
			slog.Debug("stream aborted", "plan_id", p.ID, "error", err)
			return
		}
	}

	final := StreamMessage{Type: MessageStatus, Status: p.Result.Status, Days: p.Result.Days}
	if err := writeMessage(ctx, c, final); err != nil {
		slog.Debug("stream aborted", "plan_id", p.ID, "error", err)
		return
	}

	s.logEvent(plan.Event{
		PlanID:    p.ID,
		EventType: plan.EventPlanStreamed,
		Data:      map[string]any{"messages": len(days) + 1},
	})
	c.Close(websocket.StatusNormalClosure, "plan complete")
}

func writeMessage(ctx context.Context, c *websocket.Conn, msg StreamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, msg)
}
