package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"nanodraw/internal/http/handlers"
	"nanodraw/internal/infra"
	"nanodraw/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger *infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(*logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, app.Country),
		middleware.Principal(cfg.JWTSecret),
	)

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/image-generator", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
			r.Post("/generate", app.ImagesGenerate)
			r.Post("/img2img", app.ImagesImg2Img)
			r.Post("/upload", app.Upload)
		})

		r.Get("/r2/*", app.ObjectProxy)

		r.Route("/generation-records", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", app.RecordsList)
			r.Get("/{id}", app.RecordsGet)
			r.Delete("/{id}", app.RecordsDelete)
		})
	})

	return r
}
