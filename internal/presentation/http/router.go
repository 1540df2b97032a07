package httppresentation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability/logctx"
)

const (
	componentHTTPServer = "http_server"
	headerRequestID     = "X-Request-ID"
)

// Router is a chi mux whose routes all carry the tracing, logging and metrics chain.
type Router struct {
	mux    *chi.Mux
	log    observability.Logger
	tel    observability.Observability
	tracer trace.Tracer
}

func NewRouter(serviceName string, tel observability.Observability) *Router {
	if tel == nil {
		tel = observability.Nop()
	}
	mux := chi.NewRouter()
	mux.Use(chimiddleware.StripSlashes)

	rt := &Router{
		mux:    mux,
		log:    tel.Logger().With(observability.F("component", componentHTTPServer)),
		tel:    tel,
		tracer: otel.Tracer(serviceName + ".http"),
	}
	rt.Handle(http.MethodGet, "/health", handleHealth)
	return rt
}

// Handle registers h for method and route. route is a chi pattern and doubles as the
// low-cardinality route label.
func (rt *Router) Handle(method, route string, h http.HandlerFunc) {
	label := method + " " + route
	// Trace → Request Logger → Access Log → Metrics → Recover → Handler
	wrapped := rt.withTrace(
		ObservabilityMiddleware(rt.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		})(
			rt.withAccessLog(
				rt.withHTTPMetrics(
					rt.withRecover(h),
				),
			),
		),
	)
	rt.mux.Method(method, route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), label)))
	}))
}

// Mount exposes h without the middleware chain, e.g. the Prometheus scrape endpoint.
func (rt *Router) Mount(pattern string, h http.Handler) {
	rt.mux.Handle(pattern, h)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (rt *Router) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), rt.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using W3C propagation.
func (rt *Router) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}

		ctx, span := rt.tracer.Start(parentCtx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
