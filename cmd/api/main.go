package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zhouzirui/tweetsmith/backend/internal/config"
	"github.com/zhouzirui/tweetsmith/backend/internal/handler"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/ai"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/chat"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/eventlog"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/history"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/publish"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/tweet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.AI.Enabled() {
		log.Printf("warning: %s credentials missing, /chat and /tweet will fail upstream", cfg.AI.Provider)
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatalf("failed to create chat model: %v", err)
	}

	aiService, err := ai.NewService(ctx, chatModel)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Printf("AI service initialized (provider=%s, model=%s)", cfg.AI.Provider, cfg.AI.Model)

	events, err := eventlog.Open(ctx, cfg.EventLog)
	if err != nil {
		log.Fatalf("failed to initialize event log: %v", err)
	}
	defer events.Close()
	if events.Enabled() {
		log.Printf("event log enabled (strict=%t)", cfg.EventLog.Strict)
	} else {
		log.Println("event log not configured, skipping")
	}

	historyService := history.NewService()
	publisher := publish.NewPublisher(cfg.Posting, nil)
	if !publisher.Configured() {
		log.Println("posting service not configured, /tweet/post will answer 400")
	}

	router := handler.NewRouter(cfg.Server.AllowedOrigin, handler.Services{
		Chat:      chat.NewService(aiService, events),
		Composer:  tweet.NewComposer(aiService, historyService, events),
		History:   historyService,
		Publisher: publisher,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("tweetsmith relay listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
