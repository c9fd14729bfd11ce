package handler

import (
	"net/http"

	"github.com/msomdec/socialfeed/internal/service"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Auth       *service.AuthService
	Passwords  *service.PasswordService
	Profiles   *service.ProfileService
	Posts      *service.PostService
	Feed       *service.FeedService
	Engagement *service.EngagementService
	Media      *service.MediaService

	// LoginLimiter guards the credential endpoints. Nil disables it.
	LoginLimiter Limiter
	// Metrics is served at /metrics when set.
	Metrics http.Handler

	CookieSecure bool
	Debug        bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	authH := NewAuthHandler(d.Auth, d.Passwords, d.CookieSecure, d.Debug)
	userH := NewUserHandler(d.Profiles, d.Engagement, d.Debug)
	postH := NewPostHandler(d.Posts, d.Feed, d.Engagement, d.Debug)
	mediaH := NewMediaHandler(d.Media, d.Debug)

	limited := func(h http.HandlerFunc) http.Handler {
		if d.LoginLimiter == nil {
			return h
		}
		return RateLimit(d.LoginLimiter, h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(d.Auth, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	// Account.
	mux.Handle("POST /users/register", limited(authH.HandleRegister))
	mux.Handle("POST /users/login", limited(authH.HandleLogin))
	mux.HandleFunc("POST /users/logout", authH.HandleLogout)
	mux.Handle("POST /users/forgot-password", limited(authH.HandleForgotPassword))
	mux.HandleFunc("POST /users/reset-password", authH.HandleResetPassword)

	// Users.
	mux.Handle("GET /users/me", protected(userH.HandleMe))
	mux.Handle("PUT /users/profile", protected(userH.HandleUpdateProfile))
	mux.Handle("GET /users/search", protected(userH.HandleSearch))
	mux.Handle("POST /users/{userId}/follow", protected(userH.HandleToggleFollow))

	// Posts.
	mux.Handle("GET /posts", protected(postH.HandleFeed))
	mux.Handle("POST /posts", protected(postH.HandleCreatePost))
	mux.Handle("DELETE /posts/{postId}", protected(postH.HandleDeletePost))
	mux.Handle("POST /posts/{postId}/like", protected(postH.HandleToggleLike))
	mux.Handle("POST /posts/{postId}/share", protected(postH.HandleSharePost))

	// Media.
	mux.Handle("POST /media", protected(mediaH.HandleUpload))
	mux.HandleFunc("GET /media/{key...}", mediaH.HandleServe)
}
