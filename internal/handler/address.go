package handler

import (
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/deppfellow/civil-registry/internal/service"
	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	Handler
	addresses *service.AddressService
}

func NewAddressHandler(s *server.Server, addresses *service.AddressService) *AddressHandler {
	return &AddressHandler{
		Handler:   NewHandler(s),
		addresses: addresses,
	}
}

// List returns every address, or those whose city contains ?city=.
func (h *AddressHandler) List(c echo.Context, req *CityQuery) ([]model.AddressRecord, error) {
	if req.City != "" {
		return h.addresses.SearchByCity(c.Request().Context(), req.City)
	}
	return h.addresses.ListAll(c.Request().Context())
}

func (h *AddressHandler) Get(c echo.Context, req *IDRequest) (*model.AddressRecord, error) {
	return h.addresses.GetByID(c.Request().Context(), req.ID)
}

func (h *AddressHandler) Count(c echo.Context, _ *EmptyRequest) (CountResponse, error) {
	n, err := h.addresses.Count(c.Request().Context())
	return CountResponse{Count: n}, err
}

func (h *AddressHandler) Create(c echo.Context, req *AddressRequest) (*model.AddressRecord, error) {
	rec := req.Record()
	rec.ID = nil
	return h.addresses.Create(c.Request().Context(), rec)
}

func (h *AddressHandler) Exists(c echo.Context, req *AddressRequest) error {
	return h.addresses.Exists(c.Request().Context(), req.ID)
}

func (h *AddressHandler) Update(c echo.Context, req *AddressRequest) (*model.AddressRecord, error) {
	return h.addresses.Update(c.Request().Context(), req.Record())
}

func (h *AddressHandler) Delete(c echo.Context, req *IDRequest) error {
	return h.addresses.Remove(c.Request().Context(), req.ID)
}
