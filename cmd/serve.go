package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neighborlens/neighborlens/internal/model"
	"github.com/neighborlens/neighborlens/internal/pipeline"
	"github.com/neighborlens/neighborlens/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Enricher, env.Store, cfg.Server.AllowedOrigins),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the API routes.
func newRouter(enricher *pipeline.Enricher, st store.Store, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/neighborhood/{query}", handleNeighborhood(enricher))
		r.Get("/saved", handleListComparisons(st))
		r.Post("/saved", handleCreateComparison(st))
		r.Delete("/saved/{id}", handleDeleteComparison(st))
	})

	return r
}

func handleNeighborhood(enricher *pipeline.Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := chi.URLParam(r, "query")

		// A dropped connection must not abandon an enrichment in flight;
		// the result is still worth caching for the next caller.
		ctx := context.WithoutCancel(r.Context())

		n, err := enricher.Enrich(ctx, query)
		if err != nil {
			if errors.Is(err, model.ErrInvalidQuery) {
				writeError(w, http.StatusBadRequest, "Query must be between 2 and 100 characters.")
				return
			}
			zap.L().Error("enrichment failed", zap.String("query", query), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Something went wrong while building the neighborhood profile.")
			return
		}
		writeJSON(w, http.StatusOK, n)
	}
}

func handleListComparisons(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comparisons, err := st.ListComparisons(r.Context())
		if err != nil {
			zap.L().Error("list comparisons failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Could not list saved comparisons.")
			return
		}
		if comparisons == nil {
			comparisons = []model.SavedComparison{}
		}
		writeJSON(w, http.StatusOK, comparisons)
	}
}

func handleCreateComparison(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NeighborhoodIDs []string `json:"neighborhood_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		c, err := st.CreateComparison(r.Context(), req.NeighborhoodIDs)
		if err != nil {
			if errors.Is(err, model.ErrInvalidComparison) {
				writeError(w, http.StatusBadRequest, "A comparison must reference 1 or 2 neighborhoods.")
				return
			}
			zap.L().Error("create comparison failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Could not save the comparison.")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleDeleteComparison(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := st.DeleteComparison(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "No saved comparison with that ID.")
				return
			}
			zap.L().Error("delete comparison failed", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Could not delete the comparison.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// apiError is the fixed error body shape.
type apiError struct {
	Error   bool   `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Error: true, Status: status, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
