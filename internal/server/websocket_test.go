package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func dialWS(t *testing.T, h *Handler, subprotocols ...string) (context.Context, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	if subprotocols == nil {
		subprotocols = []string{transportWSProtocol}
	}
	conn, _, err := websocket.Dial(ctx, srv.URL, &websocket.DialOptions{Subprotocols: subprotocols})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return ctx, conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(msg)))
}

func receive(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	var raw json.RawMessage
	require.NoError(t, wsjson.Read(ctx, conn, &raw))
	return string(raw)
}

func initConn(t *testing.T, ctx context.Context, conn *websocket.Conn) {
	t.Helper()
	send(t, ctx, conn, `{"type":"connection_init","payload":{}}`)
	require.Equal(t, `{"type":"connection_ack"}`, receive(t, ctx, conn))
}

// closeStatus reads until the server closes the connection.
func closeStatus(ctx context.Context, conn *websocket.Conn) websocket.StatusCode {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			return websocket.CloseStatus(err)
		}
	}
}

// Pattern: Result comparison
func TestWebSocket_Operations_Result(t *testing.T) {
	tests := []struct {
		name      string
		subscribe string
		want      []string
	}{
		{
			name:      "Subscription events then complete",
			subscribe: `{"id":"1","type":"subscribe","payload":{"query":"subscription { count(to: 2) }"}}`,
			want: []string{
				`{"id":"1","type":"next","payload":{"data":{"count":1}}}`,
				`{"id":"1","type":"next","payload":{"data":{"count":2}}}`,
				`{"id":"1","type":"complete"}`,
			},
		},
		{
			name:      "Query runs once",
			subscribe: `{"id":"q","type":"subscribe","payload":{"query":"query Q($s: String) { echo(s: $s) }","operationName":"Q","variables":{"s":"ws"}}}`,
			want: []string{
				`{"id":"q","type":"next","payload":{"data":{"echo":"ws"}}}`,
				`{"id":"q","type":"complete"}`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, conn := dialWS(t, newTestHandler(t, nil))
			initConn(t, ctx, conn)

			send(t, ctx, conn, tt.subscribe)
			var got []string
			for range tt.want {
				got = append(got, receive(t, ctx, conn))
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWebSocket_OperationError(t *testing.T) {
	ctx, conn := dialWS(t, newTestHandler(t, nil))
	initConn(t, ctx, conn)

	send(t, ctx, conn, `{"id":"e","type":"subscribe","payload":{"query":"subscription { count }"}}`)
	got := receive(t, ctx, conn)

	require.Equal(t, "e", gjson.Get(got, "id").String())
	require.Equal(t, "error", gjson.Get(got, "type").String())
	require.Equal(t, "Argument < to > of required type < Int! > was not provided.", gjson.Get(got, "payload.0.message").String())
	require.Equal(t, `["count"]`, gjson.Get(got, "payload.0.path").Raw)

	// The connection stays usable.
	send(t, ctx, conn, `{"type":"ping"}`)
	require.Equal(t, `{"type":"pong"}`, receive(t, ctx, conn))
}

func TestWebSocket_ClientComplete(t *testing.T) {
	ctx, conn := dialWS(t, newTestHandler(t, nil))
	initConn(t, ctx, conn)

	send(t, ctx, conn, `{"id":"f","type":"subscribe","payload":{"query":"subscription { forever }"}}`)
	require.Equal(t, "next", gjson.Get(receive(t, ctx, conn), "type").String())

	send(t, ctx, conn, `{"id":"f","type":"complete"}`)
	send(t, ctx, conn, `{"type":"ping"}`)
	for {
		msg := receive(t, ctx, conn)
		if gjson.Get(msg, "type").String() == "pong" {
			break
		}
		require.Equal(t, "next", gjson.Get(msg, "type").String(), msg)
	}
}

func TestWebSocket_CloseCodes(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		messages []string
		want     websocket.StatusCode
	}{
		{
			name:     "Subscribe before connection_init",
			messages: []string{`{"id":"1","type":"subscribe","payload":{"query":"{ hello }"}}`},
			want:     closeUnauthorized,
		},
		{
			name:     "Repeated connection_init",
			messages: []string{`{"type":"connection_init"}`, `{"type":"connection_init"}`},
			want:     closeTooManyInitReqs,
		},
		{
			name:     "Invalid JSON",
			messages: []string{`nope`},
			want:     closeBadRequest,
		},
		{
			name:     "Unknown message type",
			messages: []string{`{"type":"bogus"}`},
			want:     closeBadRequest,
		},
		{
			name:     "Subscribe without id",
			messages: []string{`{"type":"connection_init"}`, `{"type":"subscribe","payload":{"query":"{ hello }"}}`},
			want:     closeBadRequest,
		},
		{
			name: "Duplicate operation id",
			messages: []string{
				`{"type":"connection_init"}`,
				`{"id":"x","type":"subscribe","payload":{"query":"subscription { forever }"}}`,
				`{"id":"x","type":"subscribe","payload":{"query":"subscription { forever }"}}`,
			},
			want: closeDuplicateID,
		},
		{
			name: "Missing connection_init",
			opts: []Option{WithInitTimeout(20 * time.Millisecond)},
			want: closeInitTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, conn := dialWS(t, newTestHandler(t, nil, tt.opts...))
			for _, msg := range tt.messages {
				send(t, ctx, conn, msg)
			}
			require.Equal(t, tt.want, closeStatus(ctx, conn))
		})
	}
}

func TestWebSocket_RequiresSubprotocol(t *testing.T) {
	ctx, conn := dialWS(t, newTestHandler(t, nil), "graphql-ws")

	require.Equal(t, websocket.StatusProtocolError, closeStatus(ctx, conn))
}
