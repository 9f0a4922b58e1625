package ingress

import (
	"context"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callassist/orchestrator/internal/domain"
)

// fakeIngress is a stand-in gateway; its method set matches Ingress.PushEvent.
type fakeIngress struct {
	mu     sync.Mutex
	got    []PushRequest
	reject bool
}

func (f *fakeIngress) PushEvent(req *PushRequest, resp *PushResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, *req)
	resp.OK = !f.reject
	resp.Delivered = !f.reject
	return nil
}

func (f *fakeIngress) received() []PushRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PushRequest(nil), f.got...)
}

func startFakeIngress(t *testing.T, fake *fakeIngress) string {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("Ingress", fake))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.ServeCodec(jsonrpc.NewServerCodec(conn))
		}
	}()
	return "tcp://" + ln.Addr().String()
}

func testCall() domain.Call {
	return domain.Call{ID: "c1", Status: domain.CallStatusRinging, StartedAt: time.Unix(1700000000, 0).UTC()}
}

func TestClient_PushEvent(t *testing.T) {
	fake := &fakeIngress{}
	client := NewClient(startFakeIngress(t, fake))
	require.True(t, client.Enabled())

	require.NoError(t, client.PushEvent(context.Background(), domain.NewCallStartEvent(testCall())))

	got := fake.received()
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].CallID)
	assert.Equal(t, domain.EventTypeCallStart, got[0].Event.Type)
	call, ok := got[0].Event.Data.(domain.Call)
	require.True(t, ok)
	assert.Equal(t, domain.CallStatusRinging, call.Status)
}

func TestClient_Rejected(t *testing.T) {
	fake := &fakeIngress{reject: true}
	client := NewClient(startFakeIngress(t, fake))
	err := client.PushEvent(context.Background(), domain.NewCallEndEvent(testCall()))
	assert.ErrorIs(t, err, ErrRejected)
}

func TestClient_Disabled(t *testing.T) {
	client := NewClient("")
	assert.False(t, client.Enabled())
	assert.NoError(t, client.PushEvent(context.Background(), domain.NewCallEndEvent(testCall())))
}

func TestForwarder_PushesInOrder(t *testing.T) {
	fake := &fakeIngress{}
	fwd := NewForwarder(NewClient(startFakeIngress(t, fake)), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fwd.Run(ctx)

	c := testCall()
	require.NoError(t, fwd.Handle(domain.NewCallStartEvent(c)))
	require.NoError(t, fwd.Handle(domain.NewCallAnswerEvent(c)))
	require.NoError(t, fwd.Handle(domain.NewCallEndEvent(c)))

	require.Eventually(t, func() bool { return len(fake.received()) == 3 }, 2*time.Second, 10*time.Millisecond)
	got := fake.received()
	assert.Equal(t, domain.EventTypeCallStart, got[0].Event.Type)
	assert.Equal(t, domain.EventTypeCallAnswer, got[1].Event.Type)
	assert.Equal(t, domain.EventTypeCallEnd, got[2].Event.Type)
}

func TestForwarder_QueueFull(t *testing.T) {
	fwd := NewForwarder(NewClient(""), 1)
	require.NoError(t, fwd.Handle(domain.NewCallStartEvent(testCall())))
	assert.ErrorIs(t, fwd.Handle(domain.NewCallEndEvent(testCall())), ErrQueueFull)
}

func TestResolveRPCAddr(t *testing.T) {
	assert.Equal(t, "", resolveRPCAddr("  "))
	assert.Equal(t, "localhost:9000", resolveRPCAddr("http://localhost:9000"))
	assert.Equal(t, "localhost:9000", resolveRPCAddr("localhost:9000"))
}
