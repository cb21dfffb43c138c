package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizbot/internal/engine"
)

// EventSource is the slice of the engine the monitor needs.
type EventSource interface {
	Subscribe() (<-chan engine.Event, func())
}

// Monitor streams session lifecycle events to operators over a websocket.
// It is read-only: answers and commands never enter through here.
type Monitor struct {
	source   EventSource
	upgrader websocket.Upgrader
}

func NewMonitor(source EventSource) *Monitor {
	return &Monitor{
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the monitor's mux with /healthz and /ws.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", m.ServeWS)
	return mux
}

// ServeWS upgrades the request and forwards engine events until either
// side goes away.
func (m *Monitor) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := m.source.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
