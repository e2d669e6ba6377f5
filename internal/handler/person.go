package handler

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/deppfellow/civil-registry/internal/lib/taxid"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/deppfellow/civil-registry/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type PersonHandler struct {
	Handler
	persons   *service.PersonService
	addresses *service.AddressService
}

func NewPersonHandler(s *server.Server, persons *service.PersonService, addresses *service.AddressService) *PersonHandler {
	return &PersonHandler{
		Handler:   NewHandler(s),
		persons:   persons,
		addresses: addresses,
	}
}

// List returns every person, or those matching the query filters.
func (h *PersonHandler) List(c echo.Context, req *PersonQuery) ([]model.PersonRecord, error) {
	f := req.Filter()
	switch {
	case f.IsZero():
		return h.persons.ListAll(c.Request().Context())
	case f == (service.PersonFilter{Name: f.Name}):
		return h.persons.SearchByName(c.Request().Context(), f.Name)
	default:
		return h.persons.Filter(c.Request().Context(), f)
	}
}

func (h *PersonHandler) Stats(c echo.Context, _ *EmptyRequest) (*service.PersonStats, error) {
	return h.persons.Stats(c.Request().Context())
}

func (h *PersonHandler) Get(c echo.Context, req *IDRequest) (*model.PersonRecord, error) {
	return h.persons.GetByID(c.Request().Context(), req.ID)
}

func (h *PersonHandler) Count(c echo.Context, _ *EmptyRequest) (CountResponse, error) {
	n, err := h.persons.Count(c.Request().Context())
	return CountResponse{Count: n}, err
}

func (h *PersonHandler) Create(c echo.Context, req *PersonRequest) (*model.PersonRecord, error) {
	rec := req.Record()
	rec.ID = nil
	return h.persons.Create(c.Request().Context(), rec)
}

// Exists is the lookup for PUT /persons/:id.
func (h *PersonHandler) Exists(c echo.Context, req *PersonRequest) error {
	return h.persons.Exists(c.Request().Context(), req.ID)
}

func (h *PersonHandler) Update(c echo.Context, req *PersonRequest) (*model.PersonRecord, error) {
	return h.persons.Update(c.Request().Context(), req.Record())
}

func (h *PersonHandler) Delete(c echo.Context, req *IDRequest) error {
	return h.persons.Remove(c.Request().Context(), req.ID)
}

func (h *PersonHandler) ListAddresses(c echo.Context, req *IDRequest) ([]model.AddressRecord, error) {
	return h.addresses.ListByOwner(c.Request().Context(), req.ID)
}

var exportHeader = []string{"id", "name", "tax_id", "birth_date", "age", "sex"}

// Export renders every person as CSV.
func (h *PersonHandler) Export(c echo.Context, _ *EmptyRequest) ([]byte, error) {
	persons, err := h.persons.ListAll(c.Request().Context())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, errors.Wrap(err, "write export header")
	}
	for _, p := range persons {
		if err := w.Write(exportRow(p)); err != nil {
			return nil, errors.Wrap(err, "write export row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "flush export")
	}
	return buf.Bytes(), nil
}

func exportRow(p model.PersonRecord) []string {
	row := make([]string, len(exportHeader))
	if p.ID != nil {
		row[0] = strconv.FormatInt(*p.ID, 10)
	}
	row[1] = p.Name
	row[2] = taxid.Format(p.TaxID)
	if p.BirthDate != nil {
		row[3] = p.BirthDate.Format(dateLayout)
	}
	if p.Age != nil {
		row[4] = strconv.Itoa(*p.Age)
	}
	row[5] = p.SexDescription
	return row
}

type CountResponse struct {
	Count int64 `json:"count"`
}
