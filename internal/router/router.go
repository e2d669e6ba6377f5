// Package router builds the echo instance: global middleware, system
// routes and the versioned API.
package router

import (
	"net/http"

	"github.com/deppfellow/civil-registry/internal/handler"
	"github.com/deppfellow/civil-registry/internal/middleware"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/labstack/echo/v4"
)

func NewRouter(h *handler.Handlers, mw *middleware.Middlewares) *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	router.Use(
		mw.RateLimit.Limit(),
		mw.Global.CORS(),
		mw.Global.Secure(),
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1", mw.Auth.RequireAuth())
	registerPersonRoutes(v1, h, mw)
	registerAddressRoutes(v1, h, mw)
	registerPostalRoutes(v1, h, mw)

	return router
}

func registerPersonRoutes(g *echo.Group, h *handler.Handlers, mw *middleware.Middlewares) {
	persons := g.Group("/persons")
	ph := h.Person

	persons.GET("", handler.Handle(ph.Handler, ph.List, http.StatusOK, &handler.PersonQuery{}))
	persons.GET("/count", handler.Handle(ph.Handler, ph.Count, http.StatusOK, &handler.EmptyRequest{}))
	persons.GET("/stats", handler.Handle(ph.Handler, ph.Stats, http.StatusOK, &handler.EmptyRequest{}))
	persons.GET("/export", handler.HandleFile(ph.Handler, ph.Export, &handler.EmptyRequest{}, handler.Attachment{
		Name:        "persons",
		Ext:         "csv",
		ContentType: "text/csv; charset=utf-8",
	}))
	persons.GET("/:id", handler.Handle(ph.Handler, ph.Get, http.StatusOK, &handler.IDRequest{}))
	persons.GET("/:id/addresses", handler.Handle(ph.Handler, ph.ListAddresses, http.StatusOK, &handler.IDRequest{}))
	persons.POST("", handler.Handle(ph.Handler, ph.Create, http.StatusCreated, &handler.PersonRequest{}))
	persons.PUT("/:id", handler.HandleUpdate(ph.Handler, ph.Exists, ph.Update, &handler.PersonRequest{}))
	persons.DELETE("/:id", handler.HandleNoContent(ph.Handler, ph.Delete, http.StatusNoContent, &handler.IDRequest{}),
		mw.Auth.RequireRole(model.RoleAdmin))
}

func registerAddressRoutes(g *echo.Group, h *handler.Handlers, mw *middleware.Middlewares) {
	addresses := g.Group("/addresses")
	ah := h.Address

	addresses.GET("", handler.Handle(ah.Handler, ah.List, http.StatusOK, &handler.CityQuery{}))
	addresses.GET("/count", handler.Handle(ah.Handler, ah.Count, http.StatusOK, &handler.EmptyRequest{}))
	addresses.GET("/:id", handler.Handle(ah.Handler, ah.Get, http.StatusOK, &handler.IDRequest{}))
	addresses.POST("", handler.Handle(ah.Handler, ah.Create, http.StatusCreated, &handler.AddressRequest{}))
	addresses.PUT("/:id", handler.HandleUpdate(ah.Handler, ah.Exists, ah.Update, &handler.AddressRequest{}))
	addresses.DELETE("/:id", handler.HandleNoContent(ah.Handler, ah.Delete, http.StatusNoContent, &handler.IDRequest{}),
		mw.Auth.RequireRole(model.RoleAdmin))
}

func registerPostalRoutes(g *echo.Group, h *handler.Handlers, mw *middleware.Middlewares) {
	codes := g.Group("/postal-codes")
	pc := h.Postal

	codes.DELETE("/cache", handler.HandleNoContent(pc.Handler, pc.ClearCache, http.StatusNoContent, &handler.EmptyRequest{}),
		mw.Auth.RequireRole(model.RoleAdmin))
	codes.GET("/:code", handler.Handle(pc.Handler, pc.Lookup, http.StatusOK, &handler.PostalCodeRequest{}))
}
