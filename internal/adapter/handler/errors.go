package handler

import (
	"log/slog"
	"net/http"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
)

func (h *HTTPHandler) logError(r *http.Request, err error) {
	h.logger.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
		slog.String("request_id", requestIDFrom(r.Context())),
	)
}

func (h *HTTPHandler) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if err := writeJSON(w, status, envelope{"error": message}); err != nil {
		h.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, err)
	h.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (h *HTTPHandler) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	h.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (h *HTTPHandler) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	h.errorResponse(w, r, http.StatusMethodNotAllowed, "the "+r.Method+" method is not supported for this resource")
}

func (h *HTTPHandler) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (h *HTTPHandler) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	h.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

// operationFailed renders a failed lending operation. Only the caller-facing
// message leaves the process; causes are logged.
func (h *HTTPHandler) operationFailed(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logError(r, err)
	}
	if werr := writeJSON(w, status, operationResponse{Success: false, Message: service.Message(err)}); werr != nil {
		h.logError(r, werr)
	}
}
