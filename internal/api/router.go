package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/subtitle-study/app/internal/api/handlers"
	"github.com/subtitle-study/app/internal/api/middleware"
	"github.com/subtitle-study/app/internal/auth"
	"github.com/subtitle-study/app/internal/db"
)

const maxJSONBody = 4 << 20

type Options struct {
	CORSOrigins []string
	// AuthRateLimit caps account requests per client IP per minute. Zero disables it.
	AuthRateLimit int
}

func NewRouter(database *db.Database, jwtService *auth.JWTService, translator handlers.Translator, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(opts.CORSOrigins)))
	r.Use(middleware.MaxBodySize(maxJSONBody))

	authHandler := handlers.NewAuthHandler(database, jwtService)
	videoHandler := handlers.NewVideoHandler(database)
	subtitleHandler := handlers.NewSubtitleHandler(database)
	translateHandler := handlers.NewTranslateHandler(translator)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		// Account (public)
		r.Group(func(r chi.Router) {
			if opts.AuthRateLimit > 0 {
				r.Use(middleware.NewRateLimiter(opts.AuthRateLimit, time.Minute).Handler)
			}
			r.Post("/sign_up", authHandler.SignUp)
			r.Post("/sign_in", authHandler.SignIn)
			r.Post("/check_email", authHandler.CheckEmail)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			r.Delete("/delete_account", authHandler.DeleteAccount)

			// Videos
			r.Get("/search", videoHandler.Search)
			r.Get("/get_saved_videos", videoHandler.SavedVideos)
			r.Delete("/delete_saved_videos", videoHandler.DeleteSavedVideo)
			r.Post("/check_video_already_saved", videoHandler.CheckAlreadySaved)

			// Subtitles
			r.Get("/get_subtitles/{videoId}", subtitleHandler.Subtitles)
			r.Get("/get_saved_subtitles/{videoId}", subtitleHandler.SavedSubtitles)
			r.Post("/store_subtitles", subtitleHandler.Store)
			r.Put("/update_subtitles", subtitleHandler.Update)

			// Translation accepts a body on GET as well.
			r.Get("/translate_subtitles", translateHandler.Translate)
			r.Post("/translate_subtitles", translateHandler.Translate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":404,"message":"route not found","detail":""}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"code":405,"message":"method not allowed","detail":""}`))
	})

	return r
}
