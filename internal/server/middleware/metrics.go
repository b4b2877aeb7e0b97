package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestObserver получает результат каждого запроса
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// MetricsMiddleware передает метод, шаблон маршрута, статус и длительность
// запроса в observer
func MetricsMiddleware(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			observer.ObserveRequest(r.Method, routePattern(r), statusOf(ww), time.Since(start))
		})
	}
}
