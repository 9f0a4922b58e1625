package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/callassist/orchestrator/internal/adapter/ingress"
	"github.com/callassist/orchestrator/internal/adapter/llm"
	"github.com/callassist/orchestrator/internal/adapter/stt"
	"github.com/callassist/orchestrator/internal/audio"
	"github.com/callassist/orchestrator/internal/config"
	"github.com/callassist/orchestrator/internal/domain"
	"github.com/callassist/orchestrator/internal/eventbus"
	"github.com/callassist/orchestrator/internal/hub"
	"github.com/callassist/orchestrator/internal/policy"
	"github.com/callassist/orchestrator/internal/service"
	"github.com/callassist/orchestrator/internal/suggest"
	httpserver "github.com/callassist/orchestrator/internal/transport/http"
	"github.com/callassist/orchestrator/internal/transport/rpc"
	"github.com/callassist/orchestrator/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting call-assist orchestrator...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("RPC Port: %d", cfg.RPCPort)
	log.Printf("LLM: %s (%s)", cfg.LLMBaseURL, cfg.LLMModel)
	log.Printf("STT: %s (%s, %s)", cfg.STTBaseURL, cfg.STTModel, cfg.STTLanguage)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	llmClient := llm.NewLLMClient(cfg.Mode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)
	transcriber := stt.NewTranscriber(cfg.Mode, cfg.STTBaseURL, cfg.STTAPIKey, cfg.STTModel, cfg.STTLanguage, cfg.STTTimeout)

	// Initialize policy engine
	policyEngine, err := policy.LoadEngine(ctx, cfg.PolicyFile, domain.Priority(cfg.SuggestMinPriority))
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	suggester := suggest.NewEngine(llmClient, suggest.Options{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Lookback:    cfg.SuggestLookback,
	})

	// Initialize service
	bus := eventbus.New()
	svc := service.New(cfg, bus, audio.NewBuffer(), transcriber, suggester, policyEngine)

	h := hub.NewHub()
	svc.Subscribe(h)

	g, gctx := errgroup.WithContext(ctx)

	// Fan-out outlives gctx so call_end events from shutdown still go out.
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	g.Go(func() error {
		h.Run(runCtx)
		return nil
	})

	ingressClient := ingress.NewClient(cfg.IngressURL)
	if ingressClient.Enabled() {
		forwarder := ingress.NewForwarder(ingressClient, 0)
		svc.Subscribe(forwarder)
		g.Go(func() error {
			forwarder.Run(runCtx)
			return nil
		})
		log.Printf("Forwarding events to %s", cfg.IngressURL)
	}

	// Create servers
	wsServer := ws.NewServer(cfg, h, svc)
	e := httpserver.NewServer(svc, h, wsServer)

	rpcServer, err := rpc.NewServer(svc)
	if err != nil {
		log.Fatalf("Failed to initialize RPC server: %v", err)
	}
	rpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.RPCPort))
	if err != nil {
		log.Fatalf("Failed to listen for RPC: %v", err)
	}

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return rpcServer.Serve(rpcListener)
	})

	log.Printf("HTTP API started on port %d", cfg.HTTPPort)
	log.Printf("Telephony RPC started on port %d", cfg.RPCPort)

	// Wait for a signal or a failed server
	g.Go(func() error {
		<-gctx.Done()

		log.Println("Shutting down orchestrator...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// End calls first so listeners receive call_end.
		svc.Shutdown(shutdownCtx)

		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
		}
		if err := rpcServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shutdown RPC server gracefully: %v", err)
		}
		stopRun()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("ERROR: %v", err)
	}

	log.Println("Orchestrator stopped")
}
