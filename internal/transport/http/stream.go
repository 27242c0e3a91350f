package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"identhub/internal/flow"
	dErrors "identhub/pkg/domain-errors"
	"identhub/pkg/platform/httputil"
)

const (
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket that pushes every view of the top
// screen and accepts events from the renderer. The session result is sent as
// the last message.
func (h *SessionHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	entry, err := h.lookup(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	views := make(chan flow.View, 1)
	stopWatch := entry.presenter.Watch(func(v flow.View) { offerLatest(views, v) })
	defer stopWatch()
	if view, ok := entry.presenter.Current(); ok {
		offerLatest(views, view)
	}

	replies := make(chan serverMessage, 8)
	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }
	defer closeDone()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.writeStream(ws, entry, views, replies, done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(replies, errorMessage(dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid message")))
			continue
		}
		switch msg.Type {
		case messagePing:
			reply(replies, serverMessage{Type: messagePong})
		case messageEvent:
			if err := h.dispatch(r.Context(), entry, msg.Event, msg.Payload); err != nil {
				reply(replies, errorMessage(err))
			}
		default:
			reply(replies, errorMessage(dErrors.New(dErrors.CodeInvalidInput, "unknown message type "+msg.Type)))
		}
	}
}

// writeStream is the only goroutine writing to ws.
func (h *SessionHandler) writeStream(ws *websocket.Conn, entry *hosted, views <-chan flow.View, replies <-chan serverMessage, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	finished := entry.finished
	for {
		select {
		case <-done:
			return
		case view := <-views:
			if err := writeMessage(ws, serverMessage{Type: messageView, View: &view}); err != nil {
				_ = ws.Close()
				return
			}
		case msg := <-replies:
			if err := writeMessage(ws, msg); err != nil {
				_ = ws.Close()
				return
			}
		case <-finished:
			res, _ := entry.session.Result()
			result := toResultResponse(res)
			_ = writeMessage(ws, serverMessage{Type: messageResult, Result: &result})
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"),
				time.Now().Add(writeWait))
			finished = nil
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = ws.Close()
				return
			}
		}
	}
}

func writeMessage(ws *websocket.Conn, msg serverMessage) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(msg)
}

// offerLatest keeps only the newest view; every view is a full render state.
func offerLatest(ch chan flow.View, v flow.View) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func reply(ch chan<- serverMessage, msg serverMessage) {
	select {
	case ch <- msg:
	default:
	}
}

func errorMessage(err error) serverMessage {
	msg := serverMessage{Type: messageError, Error: string(dErrors.CodeOf(err))}
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		msg.ErrorDescription = de.Message
	}
	return msg
}
