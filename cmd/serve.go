package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for document processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/documents", func(w http.ResponseWriter, req *http.Request) {
			handleUpload(ctx, env, w, req)
		})

		r.Get("/documents", func(w http.ResponseWriter, req *http.Request) {
			docs, err := env.Store.ListDocuments(req.Context(), store.DocumentFilter{
				Status:    model.DocumentStatus(req.URL.Query().Get("status")),
				Framework: req.URL.Query().Get("framework"),
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, docs)
		})

		r.Get("/documents/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			doc, err := env.Store.GetDocument(req.Context(), id)
			if err != nil {
				writeError(w, http.StatusNotFound, err)
				return
			}
			result, err := env.Store.GetDocumentResult(req.Context(), id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"document": doc, "result": result})
		})

		r.Get("/documents/{id}/metrics", func(w http.ResponseWriter, req *http.Request) {
			metrics, err := env.Store.ListMetrics(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, metrics)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// handleUpload accepts a multipart upload, spools it to a temp file, and
// processes it asynchronously. The response carries the path so callers
// can poll GET /documents for the outcome.
func handleUpload(serverCtx context.Context, env *pipelineEnv, w http.ResponseWriter, req *http.Request) {
	file, header, err := req.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "missing multipart field 'file'"))
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "esgintel-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, eris.Wrap(err, "spool upload"))
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, eris.Wrap(err, "spool upload"))
		return
	}
	tmp.Close()

	// Process against the server context so an in-flight document survives
	// the client disconnecting but stops on server shutdown.
	go func() {
		defer os.Remove(tmp.Name())
		doc, _, err := env.Pipeline.Process(serverCtx, tmp.Name(), false)
		if err != nil {
			zap.L().Error("upload processing failed",
				zap.String("filename", header.Filename), zap.Error(err))
			return
		}
		zap.L().Info("upload processed",
			zap.String("document_id", doc.ID),
			zap.String("filename", header.Filename))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":   "accepted",
		"filename": header.Filename,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
