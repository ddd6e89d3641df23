// Command sink is a stand-in for the per-outcome metrics sinks. One process
// serves one route; run two with different LABEL values for a full stack.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
)

type sessionEvent struct {
	UserID      string   `json:"user_id"`
	Status      string   `json:"status"`
	ScoreBin    string   `json:"score_bin,omitempty"`
	ReasonCodes []string `json:"reason_codes"`
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	addr := envOr("ADDR", ":8002")
	label := envOr("LABEL", "verified")
	failing := os.Getenv("SINK_FAIL") == "true"

	var received atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /sessions/count", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int64{"received": received.Load()})
	})
	mux.HandleFunc("POST /session", func(w http.ResponseWriter, r *http.Request) {
		if failing {
			http.Error(w, "sink unavailable", http.StatusServiceUnavailable)
			return
		}
		var ev sessionEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if ev.Status != label {
			log.Warn("event routed to wrong sink", "label", label, "status", ev.Status)
		}
		received.Add(1)
		log.Info("session received", "label", label, "user_id", ev.UserID, "score_bin", ev.ScoreBin)
		w.WriteHeader(http.StatusAccepted)
	})

	log.Info("mock sink listening", "addr", addr, "label", label)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
