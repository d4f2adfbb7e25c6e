package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"cvarchitect/internal/conversation"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Chat upgrades to a websocket and relays the conversation: inbound
// send/cancel commands, outbound session frames.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.mgr.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan conversation.Frame, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushChatWS(writeCh, conversation.Frame{Type: "pong"})
		case "cancel":
			s.Cancel()
		case "send":
			go func(text string) {
				err := s.Send(ctx, text, func(f conversation.Frame) {
					pushChatWS(writeCh, f)
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					pushChatWS(writeCh, conversation.Frame{Type: conversation.FrameError, Error: err.Error()})
				}
			}(in.Text)
		default:
			pushChatWS(writeCh, conversation.Frame{Type: conversation.FrameError, Error: "unsupported type"})
		}
	}
}

// pushChatWS enqueues without blocking; when the buffer is full the
// oldest frame is dropped in favor of the new one.
func pushChatWS(writeCh chan conversation.Frame, f conversation.Frame) {
	select {
	case writeCh <- f:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- f:
	default:
	}
}
