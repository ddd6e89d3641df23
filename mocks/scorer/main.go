// Command scorer is a stand-in for the analysis service used in local runs
// and compose stacks. It scores text by counting security keywords.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

type analyzeRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

type analyzeResponse struct {
	Decision    string   `json:"decision"`
	ScoreBin    string   `json:"score_bin"`
	ReasonCodes []string `json:"reason_codes"`
}

var keywords = map[string]string{
	"cve-":           "cve_reference",
	"xss":            "xss_indicator",
	"sql injection":  "sqli_indicator",
	"sqli":           "sqli_indicator",
	"rce":            "rce_indicator",
	"remote code":    "rce_indicator",
	"ssrf":           "ssrf_indicator",
	"csrf":           "csrf_indicator",
	"idor":           "idor_indicator",
	"deserializ":     "deserialization_indicator",
	"authentication": "auth_context",
	"security":       "security_context",
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	addr := envOr("ADDR", ":8001")

	var delay time.Duration
	if raw := os.Getenv("SCORER_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Error("invalid SCORER_DELAY", "error", err)
			os.Exit(1)
		}
		delay = d
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		resp := score(req.Text)
		log.Info("analyzed", "chars", len(req.Text), "decision", resp.Decision, "score_bin", resp.ScoreBin)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	log.Info("mock scorer listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func score(text string) analyzeResponse {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	reasons := []string{}
	for kw, code := range keywords {
		if strings.Contains(lower, kw) && !seen[code] {
			seen[code] = true
			reasons = append(reasons, code)
		}
	}

	switch n := len(reasons); {
	case n >= 3:
		return analyzeResponse{Decision: "verified", ScoreBin: "0.8-1.0", ReasonCodes: reasons}
	case n == 2:
		return analyzeResponse{Decision: "verified", ScoreBin: "0.6-0.8", ReasonCodes: reasons}
	case n == 1:
		return analyzeResponse{Decision: "non_verified", ScoreBin: "0.4-0.6", ReasonCodes: reasons}
	default:
		return analyzeResponse{Decision: "non_verified", ScoreBin: "0.0-0.2", ReasonCodes: []string{"no_security_signal"}}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
