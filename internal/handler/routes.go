package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/msomdec/recipe-api/internal/service"
)

// Services are the dependencies of the HTTP API.
type Services struct {
	Auth        *service.AuthService
	Tags        *service.AttributeService
	Ingredients *service.AttributeService
	Recipes     *service.RecipeService
	Images      *service.ImageService
	// AuthLimiter throttles account creation and token requests. Nil
	// disables throttling.
	AuthLimiter *service.RateLimiter
}

// RouterOptions configure the HTTP surface.
type RouterOptions struct {
	CORSAllowedOrigins []string
	// MediaURL prefixes stored image keys in responses. When it is a
	// local path such as /media/, images are also served from it.
	MediaURL string
	// TrustProxyHeaders takes the client IP from X-Forwarded-For or
	// X-Real-IP. Leave it off unless a proxy in front overwrites them.
	TrustProxyHeaders bool
}

// NewRouter builds the API router.
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	mediaURL := opts.MediaURL
	if mediaURL == "" {
		mediaURL = "/media/"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(SecurityHeaders)
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
	})

	r.Get("/healthz", HandleHealthz)

	users := NewUserHandler(svc.Auth)
	tags := NewAttributeHandler(svc.Tags)
	ingredients := NewAttributeHandler(svc.Ingredients)
	recipes := NewRecipeHandler(svc.Recipes, mediaURL)
	images := NewImageHandler(svc.Images, mediaURL)
	requireAuth := RequireAuth(svc.Auth)

	r.Route("/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if svc.AuthLimiter != nil {
				r.Use(RateLimit(svc.AuthLimiter))
			}
			r.Post("/create", users.HandleCreate)
			r.Post("/token", users.HandleToken)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", users.HandleMe)
			r.Patch("/me", users.HandleUpdateMe)
		})
	})

	r.Route("/recipe", func(r chi.Router) {
		r.Use(requireAuth)

		for path, h := range map[string]*AttributeHandler{"/tags": tags, "/ingredients": ingredients} {
			r.Route(path, func(r chi.Router) {
				r.Get("/", h.HandleList)
				r.Post("/", h.HandleCreate)
				r.Delete("/{id}", h.HandleDelete)
			})
		}

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipes.HandleList)
			r.Post("/", recipes.HandleCreate)
			r.Get("/{id}", recipes.HandleGet)
			r.Put("/{id}", recipes.HandleUpdate)
			r.Patch("/{id}", recipes.HandlePatch)
			r.Delete("/{id}", recipes.HandleDelete)
			r.Post("/{id}/upload-image", images.HandleUpload)
		})
	})

	if strings.HasPrefix(mediaURL, "/") {
		r.Get(mediaURL+"*", images.HandleServe)
	}

	return r
}
