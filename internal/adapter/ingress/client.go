// Package ingress pushes call events to a remote push gateway over JSON-RPC.
package ingress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/rpc/jsonrpc"
	"net/url"
	"strings"
	"time"

	"github.com/callassist/orchestrator/internal/domain"
)

// ErrRejected is returned when the gateway answers ok=false.
var ErrRejected = errors.New("ingress rpc returned ok=false")

// Client calls Ingress.PushEvent on the gateway.
type Client struct {
	addr        string
	dialTimeout time.Duration
	callTimeout time.Duration
}

// NewClient creates a client for baseURL; an empty baseURL disables pushing.
func NewClient(baseURL string) *Client {
	return &Client{
		addr:        resolveRPCAddr(baseURL),
		dialTimeout: 5 * time.Second,
		callTimeout: 5 * time.Second,
	}
}

// Enabled reports whether a gateway address is configured.
func (c *Client) Enabled() bool {
	return c.addr != ""
}

// PushRequest is the body of Ingress.PushEvent.
type PushRequest struct {
	CallID string           `json:"call_id"`
	Event  domain.CallEvent `json:"event"`
}

// PushResponse is the reply of Ingress.PushEvent.
type PushResponse struct {
	OK        bool `json:"ok"`
	Delivered bool `json:"delivered"`
}

// PushEvent sends ev to the gateway.
func (c *Client) PushEvent(ctx context.Context, ev domain.CallEvent) error {
	if c.addr == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var resp PushResponse
	if err := c.call(ctx, "Ingress.PushEvent", &PushRequest{CallID: ev.CallID, Event: ev}, &resp); err != nil {
		return fmt.Errorf("failed to push event to ingress: %w", err)
	}
	if !resp.OK {
		log.Printf("WARN: ingress rpc returned ok=false (delivered=%v)", resp.Delivered)
		return ErrRejected
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, args, reply interface{}) error {
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if c.callTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.callTimeout))
	}

	client := jsonrpc.NewClient(conn)
	call := client.Go(method, args, reply, nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-call.Done:
		return call.Error
	}
}

func resolveRPCAddr(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err == nil && parsed.Host != "" {
			return parsed.Host
		}
	}
	return raw
}
