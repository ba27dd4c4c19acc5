package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factory/internal/factory"
	"factory/internal/models"
	"factory/internal/services"
)

// handleIndex returns basic service information
// GET / - Service info and available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	info := map[string]interface{}{
		"service":     "Soroban Factory Engine",
		"version":     "1.0.0",
		"description": "Master/token/NFT/governance contract factory service",
		"endpoints": map[string]string{
			"GET /":                                     "This page - Service information",
			"GET /health":                               "Health check endpoint",
			"GET /metrics":                              "Prometheus metrics for monitoring",
			"GET /events":                               "Emitted factory events (supports ?factory=)",
			"GET /factories":                            "List all factories with state summaries",
			"GET /factories/{name}":                     "Factory detail with catalog and slots",
			"GET /factories/{name}/deployments":         "Deployment registry (supports ?kind=, ?owner=)",
			"GET /factories/{name}/slots":               "Singleton sub-factory slots (master)",
			"POST /factories/{name}/deploy":             "Deploy a contract instance",
			"POST /factories/{name}/pause":              "Pause deployments",
			"POST /factories/{name}/unpause":            "Resume deployments",
			"POST /factories/{name}/upgrade":            "Swap the factory's own wasm (auto-pauses)",
			"POST /factories/{name}/wasm":               "Register a template wasm hash for a kind",
			"POST /factories/{name}/transfer/initiate":  "Start a two-step admin transfer",
			"POST /factories/{name}/transfer/accept":    "Accept a pending admin transfer",
			"POST /factories/{name}/transfer/cancel":    "Cancel a pending admin transfer",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// handleHealth returns health status
// GET /health - Health check for monitoring systems
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "factory-engine",
		"factories": len(s.registry.Names()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleMetrics returns Prometheus metrics
// GET /metrics - Prometheus scraping endpoint
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// handleEvents returns emitted events in emission order
// GET /events?factory=master
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	evs := s.registry.Events(r.URL.Query().Get("factory"))
	out := make([]map[string]interface{}, len(evs))
	for i, ev := range evs {
		out[i] = map[string]interface{}{
			"type":    ev.EventType(),
			"factory": ev.EventFactory(),
			"at":      ev.OccurredAt(),
			"event":   ev,
		}
	}

	sendJSON(w, map[string]interface{}{"events": out, "total": len(out)})
}

// =============================================================================
// FACTORY READ ENDPOINTS
// =============================================================================

// handleListFactories lists every registered factory with its state summary
// GET /factories
func (s *Server) handleListFactories(w http.ResponseWriter, r *http.Request) {
	summaries := s.registry.Summaries(r.Context())
	sendJSON(w, map[string]interface{}{
		"factories": summaries,
		"total":     len(summaries),
	})
}

// handleGetFactory returns the full projection of one factory
// GET /factories/{name}
func (s *Server) handleGetFactory(w http.ResponseWriter, r *http.Request, eng *factory.Engine) {
	summary := services.Summarize(eng)

	catalog := make(map[models.Kind]string)
	for _, kind := range eng.Kinds() {
		if hash, err := eng.Wasm(kind); err == nil {
			catalog[kind] = hash.String()
		}
	}

	response := map[string]interface{}{
		"factory": summary,
		"catalog": catalog,
	}
	if !eng.OwnWasm().IsZero() {
		response["own_wasm"] = eng.OwnWasm().String()
	}
	if eng.Family() == models.FamilyMaster {
		response["slots"] = services.Slots(eng)
	}

	sendJSON(w, response)
}

// handleDeployments returns the deployment registry with optional filters
// GET /factories/{name}/deployments?kind=capped&owner=G...
func (s *Server) handleDeployments(w http.ResponseWriter, r *http.Request, eng *factory.Engine) {
	ctx := r.Context()
	query := r.URL.Query()

	var recs []models.DeploymentRecord
	var err error
	switch {
	case query.Get("kind") != "":
		recs, err = eng.ByKind(ctx, models.Kind(query.Get("kind")))
	case query.Get("owner") != "":
		recs, err = eng.ByOwner(ctx, query.Get("owner"))
	default:
		recs, err = eng.Deployed(ctx)
	}
	if err != nil {
		slog.Error("Failed to read deployment registry", "factory", eng.Name(), "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, map[string]interface{}{
		"factory":     eng.Name(),
		"deployments": recs,
		"total":       len(recs),
		"count":       eng.Count(),
	})
}

// handleSlots returns the master factory's singleton sub-factory slots
// GET /factories/{name}/slots
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request, eng *factory.Engine) {
	sendJSON(w, map[string]interface{}{
		"factory": eng.Name(),
		"slots":   services.Slots(eng),
	})
}

// =============================================================================
// FACTORY MUTATING ENDPOINTS
// =============================================================================

// handleDeploy runs one deployment
// POST /factories/{name}/deploy
func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	cfg, err := decodeDeployConfig(eng.Family(), r.Body)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	address, err := eng.Deploy(r.Context(), identity, cfg)
	if err != nil {
		s.sendEngineError(w, eng, "deploy", err)
		return
	}

	sendJSON(w, map[string]interface{}{
		"factory": eng.Name(),
		"kind":    cfg.TemplateKind(),
		"address": address,
	})
}

// handlePause suspends deployments
// POST /factories/{name}/pause
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	if err := eng.Pause(r.Context(), identity); err != nil {
		s.sendEngineError(w, eng, "pause", err)
		return
	}
	sendJSON(w, map[string]interface{}{"factory": eng.Name(), "paused": true})
}

// handleUnpause resumes deployments
// POST /factories/{name}/unpause
func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	if err := eng.Unpause(r.Context(), identity); err != nil {
		s.sendEngineError(w, eng, "unpause", err)
		return
	}
	sendJSON(w, map[string]interface{}{"factory": eng.Name(), "paused": false})
}

// handleUpgrade swaps the factory's own executable template
// POST /factories/{name}/upgrade {"wasm": "<hex>"}
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	var req struct {
		Wasm string `json:"wasm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	hash, err := models.ParseWasmHash(req.Wasm)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := eng.Upgrade(r.Context(), hash); err != nil {
		s.sendEngineError(w, eng, "upgrade", err)
		return
	}
	sendJSON(w, map[string]interface{}{
		"factory":  eng.Name(),
		"own_wasm": hash.String(),
		"paused":   true,
	})
}

// handleSetWasm registers a template hash for a kind
// POST /factories/{name}/wasm {"kind": "capped", "wasm": "<hex>"}
func (s *Server) handleSetWasm(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	var req struct {
		Kind string `json:"kind"`
		Wasm string `json:"wasm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	hash, err := models.ParseWasmHash(req.Wasm)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := eng.SetWasm(r.Context(), identity, models.Kind(req.Kind), hash); err != nil {
		s.sendEngineError(w, eng, "set_wasm", err)
		return
	}
	sendJSON(w, map[string]interface{}{
		"factory": eng.Name(),
		"kind":    req.Kind,
		"wasm":    hash.String(),
	})
}

// handleTransferInitiate starts a two-step admin transfer
// POST /factories/{name}/transfer/initiate {"new_admin": "G..."}
func (s *Server) handleTransferInitiate(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	var req struct {
		NewAdmin string `json:"new_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := eng.InitiateTransfer(r.Context(), identity, req.NewAdmin); err != nil {
		s.sendEngineError(w, eng, "transfer_initiate", err)
		return
	}
	sendJSON(w, map[string]interface{}{"factory": eng.Name(), "pending_admin": req.NewAdmin})
}

// handleTransferAccept completes a pending admin transfer
// POST /factories/{name}/transfer/accept
func (s *Server) handleTransferAccept(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	if err := eng.AcceptTransfer(r.Context(), identity); err != nil {
		s.sendEngineError(w, eng, "transfer_accept", err)
		return
	}
	sendJSON(w, map[string]interface{}{"factory": eng.Name(), "admin": identity})
}

// handleTransferCancel withdraws a pending admin transfer
// POST /factories/{name}/transfer/cancel
func (s *Server) handleTransferCancel(w http.ResponseWriter, r *http.Request, eng *factory.Engine, identity string) {
	if err := eng.CancelTransfer(r.Context(), identity); err != nil {
		s.sendEngineError(w, eng, "transfer_cancel", err)
		return
	}
	sendJSON(w, map[string]interface{}{"factory": eng.Name(), "cancelled": true})
}
