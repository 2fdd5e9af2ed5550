package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/verify-otp", h.verifyOTP)
		r.Post("/api/auth/resend-otp", h.resendOTP)
		r.Post("/api/auth/forgot-password", h.forgotPassword)
		r.Post("/api/auth/reset-password", h.resetPassword)
	})

	// authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/api/auth/me", h.me)

		r.Post("/api/files/upload", h.uploadFile)
		r.Get("/api/files", h.listFiles)
		r.Get("/api/files/download/{id}", h.downloadFile)
		r.Delete("/api/files/{id}", h.deleteFile)
	})

	// privileged routes
	router.Group(func(r chi.Router) {
		r.Use(h.auth, h.adminOnly)

		r.Post("/api/admin/users", h.createUser)
		r.Get("/api/admin/users", h.listUsers)
		r.Patch("/api/admin/users/{id}", h.updateUser)
		r.Delete("/api/admin/users/{id}", h.deleteUser)
	})

	return router
}
