package trialform

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/G-Node/trialform/trialform/db"
	"github.com/G-Node/trialform/trialform/widget"
)

const (
	eventWriteWait = 10 * time.Second
	eventPongWait  = 60 * time.Second
	eventPingEvery = eventPongWait * 9 / 10
)

// Origins are checked by the upgrader's default same-origin policy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// eventMessage is the JSON form of a widget event pushed to the page.
type eventMessage struct {
	Kind    string            `json:"kind"`
	Phase   string            `json:"phase"`
	Success string            `json:"success,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func newEventMessage(ev widget.Event) eventMessage {
	return eventMessage{
		Kind:    string(ev.Kind),
		Phase:   ev.Snapshot.Phase.String(),
		Success: ev.Snapshot.Success,
		Errors:  ev.Snapshot.Errors.Map(),
	}
}

// streamEvents pushes the session widget's state changes over a websocket
// until the client goes away or the widget is released.
func (srv *Trialform) streamEvents(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	wd, err := srv.widgets.Get(sess.ID)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusServiceUnavailable, "Service is shutting down")
		return
	}
	// Subscribe before the handshake completes so no event is missed.
	events, cancel := wd.Subscribe()
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		srv.log.Printf("Websocket upgrade failed for session %s: %v", sess.ID, err)
		return
	}
	defer conn.Close()

	// Reader: handles pongs and notices when the client disconnects.
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(eventPingEvery)
	defer ping.Stop()
	for {
		select {
		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(newEventMessage(ev)); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
