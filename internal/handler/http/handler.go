// Package http implements the HTTP transport layer of the application.
// It provides middleware, route handlers, and request/response utilities
// for the REST API. Authentication, logging, and tracing concerns are all
// handled at this layer before requests are forwarded to the service layer.
package http

import (
	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/service"
)

type Handler struct {
	services *service.Services

	// maxUploadBytes caps the accepted multipart upload size.
	maxUploadBytes int64

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.Server, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         logger,
	}
}
