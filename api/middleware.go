package api

import (
	"context"
	"net/http"

	"github.com/didip/tollbooth/v5"
	"github.com/didip/tollbooth/v5/limiter"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

func (a *API) limitHandler(lmt *limiter.Limiter) middlewareHandler {
	return func(w http.ResponseWriter, req *http.Request) (context.Context, error) {
		c := req.Context()
		if lmt == nil {
			return c, nil
		}
		if err := tollbooth.LimitByKeys(lmt, []string{clientIP(req)}); err != nil {
			return c, tooManyRequestsError("Rate limit exceeded")
		}
		return c, nil
	}
}

func traceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span, ctx := opentracing.StartSpanFromContext(r.Context(), "http.request")
		defer span.Finish()
		ext.HTTPMethod.Set(span, r.Method)
		ext.HTTPUrl.Set(span, r.URL.Path)
		if reqID := getRequestID(r.Context()); reqID != "" {
			span.SetTag("request_id", reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
