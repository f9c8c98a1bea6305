package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethosgate/reputation-gate/internal/application"
)

// Handler is the HTTP adapter entrypoint for the gate's endpoints.
type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "ethos-reputation-gate-api",
	})
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Ethos Reputation Gate API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"checkAccess": "POST /api/check-access",
			"accessToken": "POST /api/access-token",
			"verifyToken": "POST /api/verify-token",
		},
	})
}

func (h *Handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	var req application.CheckAccessRequest
	if err := decodeBody(r, &req); err != nil {
		logHTTPOperationError(r.Context(), "check_access", http.StatusBadRequest, err.Error(), err)
		writeGateError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.CheckAccess(r.Context(), req)
	if err != nil {
		status, msg := mapGateError(err)
		logHTTPOperationError(r.Context(), "check_access", status, msg, err)
		writeGateError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) accessToken(w http.ResponseWriter, r *http.Request) {
	var req application.AccessTokenRequest
	if err := decodeBody(r, &req); err != nil {
		logHTTPOperationError(r.Context(), "access_token", http.StatusBadRequest, err.Error(), err)
		writeGateError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.IssueAccessToken(r.Context(), req)
	if err != nil {
		status, msg := mapGateError(err)
		logHTTPOperationError(r.Context(), "access_token", status, msg, err)
		writeGateError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &req); err != nil {
		logHTTPOperationError(r.Context(), "verify_token", http.StatusBadRequest, err.Error(), err)
		writeGateError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeGateError(w, http.StatusBadRequest, "Token is required")
		return
	}

	claims, err := h.service.VerifyToken(r.Context(), req.Token)
	if err != nil {
		logHTTPOperationError(r.Context(), "verify_token", http.StatusUnauthorized, "Invalid token", err)
		writeGateError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": claims.Address,
		"score":   claims.Score,
		"tier":    claims.Tier,
		"iat":     claims.IssuedAt.Unix(),
		"exp":     claims.ExpiresAt.Unix(),
	})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("request body must be a JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
