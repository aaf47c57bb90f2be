package contact

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
)

type Response struct {
	Message string `json:"message"`
}

type Handler struct {
	service        *Service
	allowedOrigins []string
}

func NewHandler(service *Service, allowedOrigins []string) *Handler {
	return &Handler{
		service:        service,
		allowedOrigins: allowedOrigins,
	}
}

// ServeHTTP handles POST /api/contact.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.cors(w, r)

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, Response{Message: "Method not allowed"})
		return
	}

	defer r.Body.Close()

	if _, err := h.service.Submit(r.Context(), ClientID(r), r.Body); err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: msgAccepted})
}

// WriteError answers with the status and public message of err. Errors that
// are not a *Error get the generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var ce *Error
	if !errors.As(err, &ce) {
		ce = ErrUnexpected
	}
	if ce.Kind == KindRateLimited && ce.RetryAfter > 0 {
		secs := int64(math.Ceil(ce.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	msg := ce.Message
	if msg == "" {
		msg = msgUnexpected
	}
	writeJSON(w, ce.Kind.StatusCode(), Response{Message: msg})
}

// cors echoes the origin when it is allowed. Exact match, or "*" for any.
func (h *Handler) cors(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return
	}
	for _, ao := range h.allowedOrigins {
		if ao == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			return
		}
		if ao == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			return
		}
	}
}

// ClientID identifies the submitter for rate limiting: the first
// X-Forwarded-For hop, then X-Real-IP, then "unknown". Values are trusted as
// given.
func ClientID(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
