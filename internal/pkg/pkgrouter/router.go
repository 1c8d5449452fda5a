package pkgrouter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgerror"
)

// Handler returns a payload to be wrapped in the JSON success envelope, or an
// error to be encoded through pkgerror.
//
// Payloads may implement StatusCode() int, Message() string and
// Meta() map[string]any to shape the envelope.
type Handler func(ctx context.Context, r *http.Request) (any, error)

// Router serves JSON endpoints and raw handlers behind one middleware stack:
// recover, correlation id, then request logging.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

func NewRouter(uuid Generator) *Router {
	ro := &Router{
		hr: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: true,
			HandleOPTIONS:          true,
			SaveMatchedRoutePath:   true,
			NotFound:               messageHandler("endpoint not found", http.StatusNotFound),
			MethodNotAllowed:       messageHandler("method not allowed", http.StatusMethodNotAllowed),
		},
		mws: []Middleware{
			middlewareRecoverer,
			middlewareCorrelationID(uuid),
			middlewareLogging,
		},
	}

	ro.Handle(http.MethodGet, "/health", messageHandler("server is running well", http.StatusOK))

	return ro
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// Handle registers a raw handler, for responses that are not JSON envelopes
// such as pages and file downloads.
func (r *Router) Handle(method, path string, h http.Handler, mws ...Middleware) {
	stack := make([]Middleware, 0, len(r.mws)+len(mws))
	stack = append(stack, r.mws...)
	stack = append(stack, mws...)
	r.hr.Handler(method, path, Chain(h, stack...))
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.Handle(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(req.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	}), mws...)
}

// WriteError lets raw handlers fail with the same body as JSON endpoints.
func (r *Router) WriteError(_ context.Context, w http.ResponseWriter, err error) {
	writeError(w, err)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func messageHandler(msg string, code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"message": msg}, code)
	})
}

func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		body.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		body.Meta = m.Meta()
	}

	writeJSON(w, body, code)
}

// writeError exposes the cause only for validation errors; anything that is
// not a *pkgerror.Error is a 500 with a fixed message.
func writeError(w http.ResponseWriter, err error) {
	var gerr *pkgerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}
	if gerr.Type() == pkgerror.TypeValidation && gerr.Unwrap() != nil {
		resp.Error = map[string]string{
			"code":   gerr.Code().String(),
			"reason": gerr.Unwrap().Error(),
		}
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}
