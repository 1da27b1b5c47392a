package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
	"github.com/hec-growth-lab/tfp-cli/internal/model"
	"github.com/hec-growth-lab/tfp-cli/internal/panel"
	"github.com/hec-growth-lab/tfp-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for decomposition runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		defaults := decomp.Options{
			Economy:     cfg.Decomp.Economy,
			Method:      decomp.Method(cfg.Decomp.Method),
			BaseYear:    panel.Period(cfg.Decomp.BaseYear),
			Window:      cfg.Decomp.Window,
			Parallelism: cfg.Decomp.Parallelism,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, defaults),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the API router. Separated from the command so handlers are
// testable against an in-memory store.
func newRouter(st store.Store, defaults decomp.Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.RunFilter{
			Status:  model.RunStatus(req.URL.Query().Get("status")),
			Economy: req.URL.Query().Get("economy"),
			Limit:   50,
		}
		runs, err := st.ListRuns(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		summaries := make([]model.RunSummary, 0, len(runs))
		for i := range runs {
			summaries = append(summaries, runs[i].Summary())
		}
		writeJSON(w, http.StatusOK, summaries)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Post("/decompose", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Economy  string      `json:"economy"`
			Method   string      `json:"method"`
			BaseYear int         `json:"base_year"`
			Window   int         `json:"window"`
			Rows     []panel.Row `json:"rows"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
			return
		}
		if len(body.Rows) == 0 {
			writeError(w, http.StatusBadRequest, eris.New("rows are required"))
			return
		}

		opts := defaults
		if body.Economy != "" {
			opts.Economy = body.Economy
		}
		if body.Method != "" {
			opts.Method = decomp.Method(body.Method)
		}
		if body.BaseYear != 0 {
			opts.BaseYear = panel.Period(body.BaseYear)
		}
		if body.Window != 0 {
			opts.Window = body.Window
		}

		ctx := req.Context()
		run, err := st.CreateRun(ctx, model.RunRequest{
			Economy:  opts.Economy,
			Method:   string(opts.Method),
			BaseYear: int(opts.BaseYear),
			Window:   opts.Window,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		p, err := panel.Load(body.Rows)
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}

		rs, err := decomp.Run(ctx, p, opts)
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		if err := st.CompleteRun(ctx, run.ID, rs); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"run_id": run.ID,
			"result": rs,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("serve: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
