package routes

import (
	"net/http"

	"github.com/mkt918/nagoya-parking-map/backend/internal/api/handlers"
	"github.com/mkt918/nagoya-parking-map/backend/internal/api/middleware"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler   *handlers.HealthHandler
	lotHandler      *handlers.LotHandler
	stationHandler  *handlers.StationHandler
	feedbackHandler *handlers.FeedbackHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(
	healthHandler *handlers.HealthHandler,
	lotHandler *handlers.LotHandler,
	stationHandler *handlers.StationHandler,
	feedbackHandler *handlers.FeedbackHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		healthHandler:   healthHandler,
		lotHandler:      lotHandler,
		stationHandler:  stationHandler,
		feedbackHandler: feedbackHandler,
		cacheMiddleware: cacheMiddleware,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Check)

	// Lot endpoints
	r.mux.HandleFunc("GET /api/lots", r.lotHandler.ListLots)
	r.mux.HandleFunc("GET /api/lots/suggest", r.lotHandler.SuggestLots)
	r.mux.HandleFunc("GET /api/lots/{id}", r.lotHandler.GetLot)
	r.mux.HandleFunc("GET /api/lots/{id}/price", r.lotHandler.GetLotPrice)

	r.mux.HandleFunc("GET /api/station", r.stationHandler.GetStation)

	// Feedback endpoints
	r.mux.HandleFunc("POST /api/feedback", r.feedbackHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /api/feedback/link", r.feedbackHandler.GetFeedbackLink)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
