package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/strideworks/streampose/api"
	"github.com/strideworks/streampose/internal/actuator"
	"github.com/strideworks/streampose/internal/config"
	"github.com/strideworks/streampose/internal/db"
	"github.com/strideworks/streampose/internal/model"
	"github.com/strideworks/streampose/internal/pose"
	"github.com/strideworks/streampose/internal/security"
	"github.com/strideworks/streampose/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode (mock actuator)")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "", "Path to tuning config JSON")
	modelFile  = flag.String("model", "", "Model file to bind at startup (relative to models dir)")
)

func main() {
	flag.Parse()

	log.Printf("streampose %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	addr := cfg.GetListen()
	if *listen != "" {
		addr = *listen
	}

	store, err := db.Open(cfg.GetDBFile())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	// Select the actuator backend. Dev mode always runs against the
	// loopback device so a missing serial port never blocks iteration.
	var bridge *actuator.Bridge
	kind := cfg.GetActuator()
	if *devMode && kind == "serial" {
		kind = "mock"
	}
	switch kind {
	case "serial":
		bridge, err = actuator.OpenSerialBridge(
			cfg.GetSerialPort(),
			actuator.PortOptions{BaudRate: cfg.GetSerialBaud()},
			cfg.GetAckTimeout(),
		)
		if err != nil {
			log.Fatalf("failed to open actuator port: %v", err)
		}
	case "mock":
		bridge = actuator.NewMockBridge(cfg.GetAckTimeout())
	case "none":
		// no actuation configured
	}
	if bridge != nil {
		defer bridge.Close()
	}

	var act pose.Actuator
	if bridge != nil {
		act = bridge
	}
	server := api.NewServer(cfg, store, act)

	if *modelFile != "" {
		path, err := security.ResolveWithinDirectory(*modelFile, cfg.GetModelsDir())
		if err != nil {
			log.Fatalf("invalid startup model path: %v", err)
		}
		m, err := model.Load(path)
		if err != nil {
			log.Fatalf("failed to load startup model: %v", err)
		}
		server.SetModel(m)
		log.Printf("classifier set to %s", m.Name())
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the actuator port
	if bridge != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bridge.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor actuator port: %v", err)
			}
			log.Print("actuator monitor routine terminated")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// admin debugging routes, local operators only
		store.AttachAdminRoutes(mux)
		if bridge != nil {
			bridge.AttachAdminRoutes(mux)
		}

		mux.Handle("/api/", http.StripPrefix("/api", server.ServeMux()))

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		httpServer := &http.Server{
			Addr:    addr,
			Handler: h,
		}

		go func() {
			log.Printf("listening on %s", addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
