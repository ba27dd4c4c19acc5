package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"

	"factory/internal/auth"
	"factory/internal/factory"
	"factory/internal/models"
)

// ErrorResponse is the JSON shape of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func sendJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// sendError sends a JSON error response
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

// sendEngineError maps an engine failure onto an HTTP status
func (s *Server) sendEngineError(w http.ResponseWriter, eng *factory.Engine, op string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.Error("Factory operation failed", "factory", eng.Name(), "op", op, "error", err)
		s.sendError(w, "Internal server error", status)
		return
	}
	s.sendError(w, err.Error(), status)
}

func statusForError(err error) int {
	var verr *factory.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotAuthorized),
		errors.Is(err, factory.ErrNotAdmin),
		errors.Is(err, factory.ErrNotPendingAdmin):
		return http.StatusForbidden
	case errors.Is(err, factory.ErrPaused),
		errors.Is(err, factory.ErrDuplicateSalt),
		errors.Is(err, factory.ErrAlreadyDeployed),
		errors.Is(err, factory.ErrNoPendingAdmin),
		errors.Is(err, factory.ErrWasmNotSet),
		errors.Is(err, factory.ErrReentrancy):
		return http.StatusConflict
	case errors.Is(err, factory.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, factory.ErrAdminNotSet),
		errors.Is(err, factory.ErrCounterOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// DEPLOY REQUEST DECODING
// =============================================================================

// Request DTOs carry salts, hashes and i128 amounts as strings; decoding
// converts them into the typed configs the engines consume.

type masterDeployRequest struct {
	Kind string `json:"kind"`
	Salt string `json:"salt"`
}

type tokenDeployRequest struct {
	Kind           string  `json:"kind"`
	Admin          string  `json:"admin"`
	Manager        string  `json:"manager"`
	InitialSupply  string  `json:"initial_supply"`
	Cap            *string `json:"cap,omitempty"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Decimals       uint32  `json:"decimals"`
	Salt           string  `json:"salt"`
	Asset          *string `json:"asset,omitempty"`
	DecimalsOffset *uint32 `json:"decimals_offset,omitempty"`
}

type nftDeployRequest struct {
	Kind    string  `json:"kind"`
	Owner   string  `json:"owner"`
	Admin   *string `json:"admin,omitempty"`
	Manager *string `json:"manager,omitempty"`
	Salt    string  `json:"salt"`
	Name    *string `json:"name,omitempty"`
	Symbol  *string `json:"symbol,omitempty"`
	BaseURI *string `json:"base_uri,omitempty"`
}

type governanceDeployRequest struct {
	Kind      string   `json:"kind"`
	Admin     string   `json:"admin"`
	Salt      string   `json:"salt"`
	RootHash  *string  `json:"root_hash,omitempty"`
	Owners    []string `json:"owners,omitempty"`
	Threshold *uint32  `json:"threshold,omitempty"`
}

// decodeDeployConfig parses a deploy request body into the family's config
func decodeDeployConfig(family models.Family, body io.Reader) (models.DeploymentConfig, error) {
	dec := json.NewDecoder(body)

	switch family {
	case models.FamilyMaster:
		var req masterDeployRequest
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		salt, err := models.ParseSalt(req.Salt)
		if err != nil {
			return nil, err
		}
		return models.MasterConfig{Kind: models.Kind(req.Kind), Salt: salt}, nil

	case models.FamilyToken:
		var req tokenDeployRequest
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		salt, err := models.ParseSalt(req.Salt)
		if err != nil {
			return nil, err
		}
		supply, err := parseAmount(req.InitialSupply)
		if err != nil {
			return nil, fmt.Errorf("invalid initial_supply: %w", err)
		}
		cfg := models.TokenConfig{
			Kind:           models.Kind(req.Kind),
			Admin:          req.Admin,
			Manager:        req.Manager,
			InitialSupply:  supply,
			Name:           req.Name,
			Symbol:         req.Symbol,
			Decimals:       req.Decimals,
			Salt:           salt,
			Asset:          req.Asset,
			DecimalsOffset: req.DecimalsOffset,
		}
		if req.Cap != nil {
			capAmount, err := parseAmount(*req.Cap)
			if err != nil {
				return nil, fmt.Errorf("invalid cap: %w", err)
			}
			cfg.Cap = capAmount
		}
		return cfg, nil

	case models.FamilyNFT:
		var req nftDeployRequest
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		salt, err := models.ParseSalt(req.Salt)
		if err != nil {
			return nil, err
		}
		return models.NFTConfig{
			Kind:    models.Kind(req.Kind),
			Owner:   req.Owner,
			Admin:   req.Admin,
			Manager: req.Manager,
			Salt:    salt,
			Name:    req.Name,
			Symbol:  req.Symbol,
			BaseURI: req.BaseURI,
		}, nil

	case models.FamilyGovernance:
		var req governanceDeployRequest
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		salt, err := models.ParseSalt(req.Salt)
		if err != nil {
			return nil, err
		}
		cfg := models.GovernanceConfig{
			Kind:      models.Kind(req.Kind),
			Admin:     req.Admin,
			Salt:      salt,
			Owners:    req.Owners,
			Threshold: req.Threshold,
		}
		if req.RootHash != nil {
			root, err := models.ParseSalt(*req.RootHash)
			if err != nil {
				return nil, fmt.Errorf("invalid root_hash: %w", err)
			}
			cfg.RootHash = &root
		}
		return cfg, nil
	}

	return nil, fmt.Errorf("unknown factory family %q", family)
}

// parseAmount parses a base-10 i128 amount
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("amount is required")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	return n, nil
}
