// Command callwatch connects to the orchestrator WebSocket stream and prints
// call events as they happen.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

// Client represents a WebSocket client.
type Client struct {
	conn   *websocket.Conn
	callID string
	raw    bool
}

// NewClient creates a new client and connects to the server.
func NewClient(addr, callID string, raw bool) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse addr: %w", err)
	}
	if callID != "" {
		q := u.Query()
		q.Set("call_id", callID)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{conn: conn, callID: callID, raw: raw}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// ReadMessages reads and prints messages until the connection closes.
func (c *Client) ReadMessages() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("Read error: %v", err)
			}
			return
		}

		if c.raw {
			var pretty map[string]interface{}
			if err := json.Unmarshal(data, &pretty); err != nil {
				log.Printf("Unmarshal error: %v", err)
				continue
			}
			formatted, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(formatted))
			continue
		}

		line, ok := formatMessage(data, c.callID)
		if ok {
			fmt.Println(line)
		}
	}
}

func main() {
	addr := flag.String("addr", "ws://localhost:8000/ws", "WebSocket server address")
	callID := flag.String("call", "", "Only show events for this call id")
	raw := flag.Bool("raw", false, "Print raw JSON envelopes")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr, *callID, *raw)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	fmt.Println("Connected. Waiting for call events, Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		client.ReadMessages()
		close(done)
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\nInterrupted")
	case <-done:
	}
}
