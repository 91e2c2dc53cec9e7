// Package event streams tool activity to HTTP subscribers.
package event

import (
	stdlog "log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

const (
	Channel   = "activity"
	EventName = "tool"
)

// Event describes one finished tool call or resource read.
type Event struct {
	Tool      string    `json:"tool"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Time      time.Time `json:"time"`
}

type Hub struct {
	server *sse.Server
	seq    atomic.Uint64
}

func NewHub(logger *stdlog.Logger) *Hub {
	return &Hub{
		server: sse.NewServer(&sse.Options{
			ChannelNameFunc: func(*http.Request) string { return Channel },
			Headers: map[string]string{
				"Cache-Control": "no-store",
			},
			Logger: logger,
		}),
	}
}

// Publish sends e to every subscriber. Events with no subscriber are dropped.
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	id := strconv.FormatUint(h.seq.Add(1), 10)
	h.server.SendMessage(Channel, sse.NewMessage(id, string(data), EventName))
}

func (h *Hub) RegisterHandlers(g *echo.Group) {
	g.GET("", echo.WrapHandler(h.server))
}

func (h *Hub) Close() {
	h.server.Shutdown()
}
