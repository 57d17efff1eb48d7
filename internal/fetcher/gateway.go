package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Gateway opcodes used during identify.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsSessionTimeout   = 20 * time.Second
	wsWriteTimeout     = 10 * time.Second
)

var ErrInvalidSession = errors.New("gateway rejected the session")

type gatewayPayload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int            `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type readyData struct {
	SessionID string `json:"session_id"`
	User      struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// identify opens a gateway session for the bot and waits for READY.
// The connection is closed once the session is confirmed; history is read over REST.
func identify(ctx context.Context, gatewayURL, token string) (*readyData, error) {
	ctx, cancel := context.WithTimeout(ctx, wsSessionTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, gatewayURL, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("gateway dial failed: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	hello, err := readPayload(conn)
	if err != nil {
		return nil, err
	}
	if hello.Op != opHello {
		return nil, fmt.Errorf("expected hello, got op %d", hello.Op)
	}

	d, err := json.Marshal(identifyData{
		Token:   token,
		Intents: 0,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "listing-radar",
			Device:  "listing-radar",
		},
	})
	if err != nil {
		return nil, err
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(gatewayPayload{Op: opIdentify, D: d}); err != nil {
		return nil, fmt.Errorf("identify failed: %w", err)
	}

	for {
		p, err := readPayload(conn)
		if err != nil {
			return nil, err
		}

		switch p.Op {
		case opDispatch:
			if p.T != "READY" {
				continue
			}
			var ready readyData
			if err := json.Unmarshal(p.D, &ready); err != nil {
				return nil, fmt.Errorf("failed to decode READY: %w", err)
			}
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return &ready, nil
		case opInvalidSession:
			return nil, ErrInvalidSession
		case opHeartbeat, opHeartbeatAck:
			continue
		}
	}
}

func readPayload(conn *websocket.Conn) (*gatewayPayload, error) {
	var p gatewayPayload
	if err := conn.ReadJSON(&p); err != nil {
		return nil, fmt.Errorf("gateway read failed: %w", err)
	}
	return &p, nil
}
