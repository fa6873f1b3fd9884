package httpapi

import (
	"net/http"

	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
)

// RouterConfig carries the HTTP-surface knobs the router needs beyond its
// handler: CORS, the internal job token and span body capture.
type RouterConfig struct {
	CORSAllowedOrigins  []string
	InternalJobToken    string
	CaptureRequestBody  bool
	RequestBodyMaxBytes int
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerTournamentRoutes(mux, handler)
	registerDivisionRoutes(mux, handler)
	registerInternalFetchRoutes(mux, handler, cfg.InternalJobToken)

	chain := recoverPanic(logger, mux)
	chain = CORS(cfg.CORSAllowedOrigins, chain)
	chain = RequestLogging(logger, chain)
	chain = CaptureRequestBody(cfg.CaptureRequestBody, cfg.RequestBodyMaxBytes, chain)
	return RequestTracing(chain)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
