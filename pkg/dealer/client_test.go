package dealer

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gesellix/spotify-core/pkg/models"
)

func TestFrameBuffer_ReassemblesFragments(t *testing.T) {
	cases := [][][]byte{
		{[]byte("hello")},
		{[]byte("hel"), []byte("lo")},
		{[]byte("h"), []byte("e"), []byte("l"), []byte("l"), []byte("o")},
	}

	for _, fragments := range cases {
		var b FrameBuffer
		if _, ok := b.TryReadMessage(); ok {
			t.Fatal("expected empty buffer to yield no message")
		}
		var want []byte
		for _, f := range fragments {
			b.Write(f)
			want = append(want, f...)
		}
		got, ok := b.TryReadMessage()
		if !ok {
			t.Fatal("expected a message after writing fragments")
		}
		if !bytes.Equal(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
		if _, ok := b.TryReadMessage(); ok {
			t.Fatal("expected buffer to be empty after TryReadMessage")
		}
	}
}

func setupMockDealerServer(t *testing.T) (*httptest.Server, chan []byte, chan []byte) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	toClient := make(chan []byte, 16)
	fromClient := make(chan []byte, 16)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		go func() {
			for msg := range toClient {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case fromClient <- data:
			default:
			}
		}
	}))
	t.Cleanup(server.Close)
	return server, toClient, fromClient
}

func wsURL(httpURL string) string {
	return "wss" + strings.TrimPrefix(strings.Replace(httpURL, "http", "ws", 1), "ws")
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	endpoint := wsURL(server.URL)
	resolver := func(ctx context.Context) ([]string, error) {
		return []string{endpoint}, nil
	}
	cfg := DefaultClientConfig()
	cfg.PingInterval = time.Hour // disable heartbeat noise in these tests
	return NewClient(resolver, cfg)
}

func TestClient_ReplyFormattingSuccess(t *testing.T) {
	server, _, fromClient := setupMockDealerServer(t)
	c := newTestClient(t, server)
	defer c.Dispose()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := c.SendReply("123/device456", models.Success); err != nil {
		t.Fatalf("SendReply: %v", err)
	}

	select {
	case frame := <-fromClient:
		s := string(frame)
		for _, want := range []string{`"type":"reply"`, `"key":"123/device456"`, `"success":true`} {
			if !strings.Contains(s, want) {
				t.Errorf("frame %q missing substring %q", s, want)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply frame")
	}
}

func TestClient_ReplyFormattingFailure(t *testing.T) {
	server, _, fromClient := setupMockDealerServer(t)
	c := newTestClient(t, server)
	defer c.Dispose()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := c.SendReply("789/device123", models.UnknownSendCommandResult); err != nil {
		t.Fatalf("SendReply: %v", err)
	}

	select {
	case frame := <-fromClient:
		if !strings.Contains(string(frame), `"success":false`) {
			t.Errorf("frame %q missing success:false", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply frame")
	}
}

func TestClient_MalformedInboundIsDroppedSilently(t *testing.T) {
	server, toClient, _ := setupMockDealerServer(t)
	c := newTestClient(t, server)
	defer c.Dispose()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	messages := c.Messages()
	defer c.messages.Unsubscribe(messages)

	toClient <- []byte(`{"type":"message","malformed`)

	select {
	case msg := <-messages:
		t.Fatalf("expected no message observed, got %+v", msg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestClient_ReconnectClearsConnectionID(t *testing.T) {
	server, toClient, _ := setupMockDealerServer(t)
	c := newTestClient(t, server)
	defer c.Dispose()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ids := c.ConnectionID()
	defer c.connectionID.Unsubscribe(ids)

	<-ids // initial empty value

	sendConnectionID(toClient, "original_id")
	if got := waitFor(t, ids); got != "original_id" {
		t.Fatalf("got %q, want original_id", got)
	}

	c.Disconnect()
	if got := waitFor(t, ids); got != "" {
		t.Fatalf("got %q, want empty id on disconnect/reconnect reset", got)
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	sendConnectionID(toClient, "new_id")
	if got := waitFor(t, ids); got != "new_id" {
		t.Fatalf("got %q, want new_id", got)
	}
	if c.CurrentConnectionID() != "new_id" {
		t.Fatalf("CurrentConnectionID = %q, want new_id", c.CurrentConnectionID())
	}
}

func sendConnectionID(toClient chan []byte, id string) {
	payload, _ := marshalStringPayload(id)
	frame := `{"type":"message","uri":"hm://pusher/v1/connections/1","payload":` + payload + `}`
	toClient <- []byte(frame)
}

func marshalStringPayload(s string) (string, error) {
	return `"` + s + `"`, nil
}

func waitFor(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
		return ""
	}
}

func TestDecodePayload_Base64AndGzip(t *testing.T) {
	raw := []byte("hello world")

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, _ = w.Write(raw)
	_ = w.Close()

	b64 := base64.StdEncoding.EncodeToString(gz.Bytes())
	payload := []byte(`"` + b64 + `"`)

	got, err := decodePayload(payload, map[string]string{"Transfer-Encoding": "gzip"})
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("got %q, want %q", got, raw)
	}
}

func TestDecodePayload_MagicByteSniff(t *testing.T) {
	raw := []byte("sniffed")
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, _ = w.Write(raw)
	_ = w.Close()

	b64 := base64.StdEncoding.EncodeToString(gz.Bytes())
	payload := []byte(`"` + b64 + `"`)

	got, err := decodePayload(payload, nil)
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("got %q, want %q", got, raw)
	}
}
