// 文件: pkg/api/router.go
// 路由表

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter 组装 /api/v1 路由
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// 内容
		r.Get("/today", h.Today)
		r.Get("/album/{album_id}", h.AlbumDetail)
		r.Get("/genres", h.Genres)
		r.Get("/genre/{genre}", h.GenreChart)
		r.Get("/artist/{artist}", h.ArtistChart)

		// 账号
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)
		r.Get("/user", h.UserInfo)
		r.Post("/user_config", h.UserConfig)
		r.Get("/user_album_log", h.History)
	})

	return r
}
