package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options carries router-level configuration separate from handler
// collaborators.
type Options struct {
	JWTSecret       string
	Premium         middleware.PremiumResolver
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	// Everything below requires a resolved account: a bearer token or a
	// guest id header.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(opts.JWTSecret, opts.Premium))

		r.Get("/v1/entitlements", app.Entitlements)
		r.Post("/v1/credits/topup", app.CreditsTopup)
		r.Post("/v1/checkin", app.Checkin)
		r.Get("/v1/pricing", app.PricingTable)

		r.Route("/v1/readings", func(r chi.Router) {
			r.Post("/", app.ReadingsStart)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.ReadingsGet)
				r.Post("/shuffle", app.ReadingsShuffle)
				r.Post("/cut", app.ReadingsCut)
				r.Post("/pick", app.ReadingsPick)
				r.Post("/confirm", app.ReadingsConfirm)
				r.Post("/reset", app.ReadingsReset)
			})
		})

		r.Post("/v1/runes/draw", app.RunesDraw)

		r.Route("/v1/chat/sessions", func(r chi.Router) {
			r.Post("/", app.ChatStart)
			r.Get("/", app.ChatList)
			r.Get("/active", app.ChatActive)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.ChatGet)
				r.Post("/messages", app.ChatSendTurn)
				r.Get("/reveal", app.ChatReveal)
			})
		})
	})

	return r
}
