package handler

import (
	"github.com/deppfellow/civil-registry/internal/lib/postal"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/labstack/echo/v4"
)

type PostalHandler struct {
	Handler
	postal *postal.Service
}

func NewPostalHandler(s *server.Server, postalService *postal.Service) *PostalHandler {
	return &PostalHandler{
		Handler: NewHandler(s),
		postal:  postalService,
	}
}

func (h *PostalHandler) Lookup(c echo.Context, req *PostalCodeRequest) (*postal.Result, error) {
	return h.postal.Lookup(c.Request().Context(), req.Code)
}

// ClearCache drops every cached directory entry.
func (h *PostalHandler) ClearCache(c echo.Context, _ *EmptyRequest) error {
	h.postal.Clear()
	return nil
}
