package handler

import (
	"github.com/DRegan-dev/downward/config"
	"github.com/DRegan-dev/downward/internal/service"
)

// Handler aggregate of every handler
type Handler struct {
	Auth    *AuthHandler
	Session *SessionHandler
	Entry   *EntryHandler
	Catalog *CatalogHandler
	Admin   *AdminHandler
	User    *UserHandler
}

// NewHandler creates the handler aggregate
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc.Auth, cfg),
		Session: NewSessionHandler(svc.Session, svc.Export, cfg.Journal.HistoryPageSize),
		Entry:   NewEntryHandler(svc.Entry),
		Catalog: NewCatalogHandler(svc.Catalog),
		Admin:   NewAdminHandler(svc.Stats, svc.Export),
		User:    NewUserHandler(svc.User, cfg.Journal.HistoryPageSize),
	}
}
