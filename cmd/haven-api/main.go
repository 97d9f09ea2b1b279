package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/havenlabs/haven-agent/internal/adapters/agents"
	httpadapter "github.com/havenlabs/haven-agent/internal/adapters/http"
	promsink "github.com/havenlabs/haven-agent/internal/adapters/metrics"
	firestorestore "github.com/havenlabs/haven-agent/internal/adapters/storage/firestore"
	memstore "github.com/havenlabs/haven-agent/internal/adapters/storage/memory"
	"github.com/havenlabs/haven-agent/internal/app/agentflow"
	"github.com/havenlabs/haven-agent/internal/app/conversation"
	"github.com/havenlabs/haven-agent/internal/app/escalation"
	"github.com/havenlabs/haven-agent/internal/config"
	"github.com/havenlabs/haven-agent/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Collaborators: mock or real, by config (useful for dev)
	var (
		emotionAgent domain.EmotionAnalyzer
		safetyAgent  domain.SafetyChecker
		chatAgent    domain.ResponseGenerator
	)

	if cfg.UseMockAgents {
		log.Println("[AGENTS] Using mock collaborators")
		emotionAgent = agents.NewMockEmotionAnalyzer()
		safetyAgent = agents.NewMockSafetyChecker()
		chatAgent = agents.NewMockResponder()
	} else {
		log.Println("[AGENTS] Using VADER emotion + keyword safety + Gemini chat")
		emotionAgent = agents.NewVaderEmotionAnalyzer()
		safetyAgent = agents.NewKeywordSafetyChecker()

		responder, err := agents.NewGeminiResponder(ctx, agents.GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Project:   cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			ModelName: cfg.ModelName,
		})
		if err != nil {
			log.Fatalf("error initializing Gemini responder: %v", err)
		}
		chatAgent = responder
	}

	// Metrics: injected sink, Prometheus or nothing
	var (
		orchOpts       []agentflow.Option
		metricsHandler http.Handler
	)

	if cfg.PrometheusEnabled {
		reg := prometheus.NewRegistry()
		orchOpts = append(orchOpts, agentflow.WithMetrics(promsink.NewPrometheusSink(reg)))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.StepTimeout > 0 {
		orchOpts = append(orchOpts, agentflow.WithStepTimeout(cfg.StepTimeout))
	}

	orchestrator, err := agentflow.NewOrchestrator(agentflow.Collaborators{
		Emotion: emotionAgent,
		Safety:  safetyAgent,
		Chat:    chatAgent,
	}, orchOpts...)
	if err != nil {
		log.Fatalf("error building orchestrator: %v", err)
	}

	// Storage: Firestore or Memory
	var sessionStore domain.SessionStore
	var messageStore domain.MessageStore
	var escalationStore domain.EscalationStore

	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("HAVEN_GCP_PROJECT is required for Firestore storage backend")
		}

		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 3 interfaces
		sessionStore = fsStore
		messageStore = fsStore
		escalationStore = fsStore

	default:
		log.Println("[STORE] Using in-memory storage")
		sessionStore = memstore.NewSessionStore()
		messageStore = memstore.NewMessageStore()
		escalationStore = memstore.NewEscalationStore()
	}

	// Services
	convSvc := conversation.NewService(orchestrator, sessionStore, messageStore, escalationStore)
	escSvc := escalation.NewService(escalationStore)

	// HTTP server
	handler := httpadapter.NewServer(convSvc, escSvc, metricsHandler)

	port := ":" + cfg.Port
	log.Println("Haven API listening on port:", port)
	if err := http.ListenAndServe(port, handler); err != nil {
		log.Fatal(err)
	}
}
