package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultStaticDir = "static"

// OpenAPIHandler serves the API reference page. The page loads
// openapi.json from the static route.
type OpenAPIHandler struct {
	Handler
	dir string
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
		dir:     defaultStaticDir,
	}
}

func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := os.ReadFile(filepath.Join(h.dir, "openapi.html"))

	c.Response().Header().Set("Cache-Control", "no-cache")

	if err != nil {
		return errors.Wrap(err, "read OpenAPI UI template")
	}

	if err := c.HTML(http.StatusOK, string(page)); err != nil {
		return errors.Wrap(err, "write OpenAPI UI")
	}
	return nil
}
