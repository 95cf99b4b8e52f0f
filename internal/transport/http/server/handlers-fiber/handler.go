// Package handlers_fiber wires HTTP delivery components.
package handlers_fiber

import (
	api "member-dedup/internal/oapi"
	"member-dedup/internal/usecase"

	"go.uber.org/zap"
)

// Handler implements oapi.ServerInterface using service layer interfaces.
type Handler struct {
	log *zap.SugaredLogger
	uc  usecase.InterfaceUsecase
}

var _ api.ServerInterface = (*Handler)(nil)

// NewHandler constructs an HTTP server with service dependencies.
func NewHandler(log *zap.SugaredLogger, usecase usecase.InterfaceUsecase) *Handler {
	return &Handler{
		log: log.Named("http"),
		uc:  usecase,
	}
}
