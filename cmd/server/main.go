package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/buildwise/buildwise/backend-go/internal/auth"
	"github.com/buildwise/buildwise/backend-go/internal/canvas"
	"github.com/buildwise/buildwise/backend-go/internal/collab"
	"github.com/buildwise/buildwise/backend-go/internal/config"
	"github.com/buildwise/buildwise/backend-go/internal/db"
	"github.com/buildwise/buildwise/backend-go/internal/document"
	"github.com/buildwise/buildwise/backend-go/internal/export"
	mw "github.com/buildwise/buildwise/backend-go/internal/middleware"
	"github.com/buildwise/buildwise/backend-go/internal/presence"
	"github.com/buildwise/buildwise/backend-go/internal/project"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(gdb, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(gdb)
	projectHandler := project.NewHandler(projectService)

	presenceService := presence.NewService(gdb, cfg.PresenceWindow)

	canvasService := canvas.NewService(gdb, projectService, presenceService)
	canvasHandler := canvas.NewHandler(canvasService, presenceService)

	documentService := document.NewService(gdb, cfg.ExportDir)

	renderer, err := export.NewRenderer()
	if err != nil {
		slog.Error("init renderer", "error", err)
		os.Exit(1)
	}
	exportHandler := export.NewHandler(canvasService, documentService, renderer, cfg.ExportDir)

	hub := collab.NewHub(presenceService)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Export downloads (file names are unguessable, timestamped)
	r.PathPrefix("/exports/").Handler(exportHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")

	api.HandleFunc("/canvas/{projectId}", canvasHandler.GetOrCreate).Methods("GET")
	api.HandleFunc("/canvas/{canvasId}", canvasHandler.Update).Methods("PUT")
	api.HandleFunc("/canvas/{canvasId}", canvasHandler.Delete).Methods("DELETE")
	api.HandleFunc("/canvas/{canvasId}/save", canvasHandler.SaveState).Methods("POST")
	api.HandleFunc("/canvas/{canvasId}/load", canvasHandler.LoadState).Methods("GET")

	api.HandleFunc("/canvas/{canvasId}/objects", canvasHandler.CreateObject).Methods("POST")
	api.HandleFunc("/canvas/objects/{objectId}", canvasHandler.UpdateObject).Methods("PUT")
	api.HandleFunc("/canvas/objects/{objectId}", canvasHandler.DeleteObject).Methods("DELETE")

	api.HandleFunc("/canvas/{canvasId}/areas", canvasHandler.CreateArea).Methods("POST")
	api.HandleFunc("/canvas/areas/{areaId}", canvasHandler.UpdateArea).Methods("PUT")
	api.HandleFunc("/canvas/areas/{areaId}", canvasHandler.DeleteArea).Methods("DELETE")
	api.HandleFunc("/canvas/areas/{areaId}/assign/{userId}", canvasHandler.AssignUser).Methods("POST")
	api.HandleFunc("/canvas/areas/{areaId}/assign/{userId}", canvasHandler.UnassignUser).Methods("DELETE")

	api.HandleFunc("/canvas/{canvasId}/active-users", canvasHandler.ActiveUsers).Methods("GET")
	api.HandleFunc("/canvas/{canvasId}/sessions", canvasHandler.CreateSession).Methods("POST")
	api.HandleFunc("/canvas/sessions/{sessionId}", canvasHandler.DeactivateSession).Methods("DELETE")

	api.HandleFunc("/canvas/{canvasId}/export", exportHandler.Export).Methods("POST")
	api.HandleFunc("/canvas/{canvasId}/statistics", canvasHandler.Statistics).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/canvas/{canvasId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, cfg)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, cfg *config.Config) {
	canvasID := mux.Vars(r)["canvasId"]

	// Auth via query param: browsers cannot set headers on websocket
	// upgrade requests.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(cfg.AllowedOrigins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, canvasID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns converts configured origins like "http://localhost:5173"
// to the host patterns coder/websocket matches against.
func originPatterns(allowed string) []string {
	var patterns []string
	for _, o := range strings.Split(allowed, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}
	return patterns
}
