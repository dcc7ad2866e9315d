package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/devpulse/internal/api"
	"example.com/devpulse/internal/config"
	"example.com/devpulse/internal/domain"
	"example.com/devpulse/internal/events"
	"example.com/devpulse/internal/relay"
	"example.com/devpulse/internal/state"
	httptransport "example.com/devpulse/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One shared in-memory fallback covers every key category without a
	// durable binding.
	fallback := state.NewMemoryStore()

	presenceStore, err := openStore(ctx, cfg.PresenceStoreURL, fallback)
	if err != nil {
		log.Fatalf("failed to open presence store: %v", err)
	}
	commitStore, err := openStore(ctx, cfg.CommitStoreURL, fallback)
	if err != nil {
		log.Fatalf("failed to open commit store: %v", err)
	}
	defer closeStores(presenceStore, commitStore)

	var publisher domain.ActivityPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ActivityTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("publishing activity entries to topic %s", cfg.ActivityTopic)
	}

	service := domain.NewService(presenceStore, commitStore, publisher)
	forwarder := relay.NewForwarder(cfg.AutomationWebhookURL, cfg.WebhookTimeout)
	log.Print(forwarder)

	handler := api.NewHandler(service, forwarder)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address: cfg.HTTPAddress,
	}, logger(api.CORS(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("devpulse listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	if err := httptransport.Shutdown(server, 15*time.Second); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// openStore resolves the durable binding for one key category, falling back to
// the shared in-memory store when no DSN is configured.
func openStore(ctx context.Context, dsn string, fallback state.Store) (state.Store, error) {
	store, err := state.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return fallback, nil
	}
	return store, nil
}

func closeStores(stores ...state.Store) {
	closed := map[state.Store]bool{}
	for _, s := range stores {
		if closed[s] {
			continue
		}
		closed[s] = true
		if pg, ok := s.(*state.PostgresStore); ok {
			pg.Close()
		}
	}
}
