// cmd/relational-server/main.go — Standalone HTTP tool server for relational
//
// Exposes the relational tools as an HTTP endpoint for AI agent frameworks.
//
// Usage:
//   go run cmd/relational-server/main.go --port 8080 [--assumptions signs.yaml]
//
// The assumptions file is a YAML map of symbol names to sign names
// (positive, negative, zero); it becomes the default sign oracle for tool
// calls that carry no "assume" param of their own.
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	relational "github.com/mquintana/relational"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func main() {
	var (
		port            int
		assumptionsPath string
	)

	root := &cobra.Command{
		Use:   "relational-server",
		Short: "HTTP tool server for both-sides relation transformations",
		RunE: func(cmd *cobra.Command, args []string) error {
			assume, err := loadAssumptions(assumptionsPath)
			if err != nil {
				return err
			}
			return serve(port, assume)
		},
		SilenceUsage: true,
	}
	root.Flags().IntVar(&port, "port", 8080, "port to listen on")
	root.Flags().StringVar(&assumptionsPath, "assumptions", "", "YAML file of symbol sign assumptions")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadAssumptions reads a YAML symbol-to-sign map, in the wire format of the
// "assume" tool param.
func loadAssumptions(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assumptions file: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing assumptions file: %w", err)
	}
	out := make(map[string]interface{}, len(raw))
	for name, signName := range raw {
		if _, err := relational.ParseSign(signName); err != nil {
			return nil, fmt.Errorf("assumptions file: %s: %w", name, err)
		}
		out[name] = signName
	}
	return out, nil
}

func serve(port int, defaultAssume map[string]interface{}) error {
	mux := http.NewServeMux()

	// POST /tool — handle a tool call
	mux.HandleFunc("/tool", func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic in /tool: %v\n%s", rec, string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req relational.ToolRequest
		if err := dec.Decode(&req); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		// Ensure there's no trailing junk.
		if dec.More() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid JSON: trailing data"})
			return
		}

		if defaultAssume != nil {
			if _, ok := req.Params["assume"]; !ok {
				if req.Params == nil {
					req.Params = map[string]interface{}{}
				}
				req.Params["assume"] = defaultAssume
			}
		}

		resp := relational.HandleToolCall(req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	// GET /schema — return tool schema for agent registration
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, relational.ToolSpec())
	})

	// GET /health — liveness check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	addr := fmt.Sprintf(":%d", port)
	log.Printf("relational tool server listening on %s", addr)
	log.Printf("  POST /tool   — execute a tool call")
	log.Printf("  GET  /schema — tool schema for agent registration")
	log.Printf("  GET  /health — health check")

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
