package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/analyzer"
	"github.com/pricelens/pricewatch/internal/match"
	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/textnorm"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON analysis API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		norm, err := textnorm.New()
		if err != nil {
			return eris.Wrap(err, "init normalizer")
		}
		priceAnalyzer := analyzer.NewPriceAnalyzer(newStatsEngine())
		comparison := analyzer.NewComparisonAnalyzer(
			match.NewMatcher(norm, match.WithThreshold(cfg.Match.Threshold)))

		mux := buildMux(priceAnalyzer, comparison)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
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

// buildMux wires the API routes.
func buildMux(priceAnalyzer *analyzer.PriceAnalyzer, comparison *analyzer.ComparisonAnalyzer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		serveAnalysis(w, r, priceAnalyzer.Analyze)
	})

	mux.HandleFunc("POST /compare", func(w http.ResponseWriter, r *http.Request) {
		serveAnalysis(w, r, comparison.Analyze)
	})

	return mux
}

// serveAnalysis decodes a records payload, runs one analyzer, and writes
// the result. Validation failures map to 400, everything else to 500.
func serveAnalysis(w http.ResponseWriter, r *http.Request, analyze func(*model.Table) (*model.AnalysisResult, error)) {
	var req struct {
		Records []model.ProductRecord `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		http.Error(w, `{"error":"records are required"}`, http.StatusBadRequest)
		return
	}

	result, err := analyze(model.NewTable(req.Records))
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": verr.Error()})
			return
		}
		zap.L().Error("analysis request failed", zap.Error(err))
		http.Error(w, `{"error":"analysis failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
