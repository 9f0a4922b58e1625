// Package rpc exposes telephony control over JSON-RPC for PBX integrations.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"github.com/callassist/orchestrator/internal/domain"
	"github.com/callassist/orchestrator/internal/service"
)

// Server exposes the Telephony RPC service.
type Server struct {
	mu        sync.Mutex
	listener  net.Listener
	rpcServer *rpc.Server
	done      chan struct{}
}

// NewServer creates a new RPC server bound to the orchestrator service.
func NewServer(svc *service.Service) (*Server, error) {
	rpcServer := rpc.NewServer()
	handler := &Handler{service: svc}
	if err := rpcServer.RegisterName("Telephony", handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		done:      make(chan struct{}),
	}, nil
}

// Start begins accepting RPC connections on the given address.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts RPC connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			log.Printf("RPC accept error: %v", err)
			continue
		}

		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Shutdown stops accepting new RPC connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	if err := ln.Close(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler implements Telephony RPC methods.
type Handler struct {
	service *service.Service
}

// CallStartedArgs describes a call the PBX just created.
type CallStartedArgs struct {
	CallID    string `json:"call_id"`
	Caller    string `json:"caller"`
	Called    string `json:"called"`
	Direction string `json:"direction"`
}

// CallRef identifies a call.
type CallRef struct {
	CallID string `json:"call_id"`
}

// IngestAudioArgs carries PCM16 bytes; JSON encodes them as base64.
type IngestAudioArgs struct {
	CallID  string `json:"call_id"`
	Speaker string `json:"speaker"`
	Audio   []byte `json:"audio"`
}

// CallReply returns a call snapshot.
type CallReply struct {
	Call *domain.Call `json:"call"`
}

// ActiveCallsReply lists active calls.
type ActiveCallsReply struct {
	Calls []domain.Call `json:"calls"`
}

// AckResponse is a generic OK response.
type AckResponse struct {
	OK bool `json:"ok"`
}

// CallStarted registers a new ringing call.
func (h *Handler) CallStarted(req *CallStartedArgs, resp *CallReply) error {
	if req == nil {
		return errors.New("call started request is required")
	}
	direction, err := domain.ParseDirection(req.Direction)
	if err != nil {
		return err
	}

	call, err := h.service.Start(context.Background(), req.CallID, req.Caller, req.Called, direction)
	if err != nil {
		return err
	}
	if resp != nil {
		resp.Call = call
	}
	return nil
}

// CallAnswered marks a call answered.
func (h *Handler) CallAnswered(req *CallRef, resp *CallReply) error {
	if req == nil || req.CallID == "" {
		return errors.New("call_id is required")
	}

	call, err := h.service.Answer(context.Background(), req.CallID)
	if err != nil {
		return err
	}
	if resp != nil {
		resp.Call = call
	}
	return nil
}

// CallEnded tears a call down.
func (h *Handler) CallEnded(req *CallRef, resp *CallReply) error {
	if req == nil || req.CallID == "" {
		return errors.New("call_id is required")
	}

	call, err := h.service.End(context.Background(), req.CallID)
	if err != nil {
		return err
	}
	if resp != nil {
		resp.Call = call
	}
	return nil
}

// IngestAudio appends audio for one speaker.
func (h *Handler) IngestAudio(req *IngestAudioArgs, resp *AckResponse) error {
	if req == nil || req.CallID == "" {
		return errors.New("call_id is required")
	}
	speaker, err := domain.ParseSpeaker(req.Speaker)
	if err != nil {
		return err
	}

	if err := h.service.IngestAudio(req.CallID, speaker, req.Audio); err != nil {
		return err
	}
	if resp != nil {
		resp.OK = true
	}
	return nil
}

// GetCall returns an active call; Call is nil when the call is not active.
func (h *Handler) GetCall(req *CallRef, resp *CallReply) error {
	if req == nil || req.CallID == "" {
		return errors.New("call_id is required")
	}
	if resp != nil {
		resp.Call = h.service.GetCall(req.CallID)
	}
	return nil
}

// ActiveCalls lists every active call.
func (h *Handler) ActiveCalls(req *struct{}, resp *ActiveCallsReply) error {
	if resp != nil {
		resp.Calls = h.service.GetActiveCalls()
	}
	return nil
}
