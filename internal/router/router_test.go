package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/deppfellow/civil-registry/internal/config"
	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/handler"
	"github.com/deppfellow/civil-registry/internal/middleware"
	"github.com/deppfellow/civil-registry/internal/repository"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/deppfellow/civil-registry/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminUser = "admin"
	adminPass = "admin-secret"
	plainUser = "registrar"
	plainPass = "registrar-secret"
)

type testApp struct {
	echo        *echo.Echo
	postalCalls *atomic.Int32
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	calls := &atomic.Int32{}
	directory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "99999999") {
			_, _ = io.WriteString(w, `{"erro": true}`)
			return
		}
		_, _ = io.WriteString(w, `{"cep":"01001-000","logradouro":"Praça da Sé","localidade":"São Paulo","uf":"SP"}`)
	}))
	t.Cleanup(directory.Close)

	postalCfg := config.DefaultPostalConfig()
	postalCfg.BaseURL = directory.URL

	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server:  config.ServerConfig{CORSAllowedOrigins: []string{"*"}},
			Auth: config.AuthConfig{
				AdminUsername:     adminUser,
				AdminPasswordHash: hash(t, adminPass),
				UserUsername:      plainUser,
				UserPasswordHash:  hash(t, plainPass),
			},
			Postal:        postalCfg,
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
	}

	services, err := service.NewServices(s, repository.NewMemoryRepositories())
	require.NoError(t, err)

	e := NewRouter(handler.NewHandlers(s, services), middleware.NewMiddlewares(s, services.Auth))
	return &testApp{echo: e, postalCalls: calls}
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func (a *testApp) do(method, path, body, user, pass string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) asUser(method, path, body string) *httptest.ResponseRecorder {
	return a.do(method, path, body, plainUser, plainPass)
}

func (a *testApp) asAdmin(method, path, body string) *httptest.ResponseRecorder {
	return a.do(method, path, body, adminUser, adminPass)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

const mariaJSON = `{
	"name": "Maria Souza",
	"tax_id": "529.982.247-25",
	"birth_date": "1985-03-20",
	"sex": "F",
	"addresses": [
		{"region_code": "SP", "city": "São Paulo", "street": "Praça da Sé", "number": 1, "postal_code": "01001-000"}
	]
}`

func createMaria(t *testing.T, app *testApp) int64 {
	t.Helper()
	rec := app.asUser(http.MethodPost, "/api/v1/persons", mariaJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	return created.ID
}

func TestSystemRoutes(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/status", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = app.do(http.MethodGet, "/nowhere", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestAuthentication(t *testing.T) {
	app := newTestApp(t)

	t.Run("missing credentials", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/v1/persons", "", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderWWWAuthenticate), "Basic")
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/v1/persons", "", plainUser, "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user cannot delete", func(t *testing.T) {
		id := createMaria(t, app)
		rec := app.asUser(http.MethodDelete, fmt.Sprintf("/api/v1/persons/%d", id), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.asUser(http.MethodGet, fmt.Sprintf("/api/v1/persons/%d", id), "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPersonRoutes(t *testing.T) {
	app := newTestApp(t)
	id := createMaria(t, app)
	path := fmt.Sprintf("/api/v1/persons/%d", id)

	t.Run("get", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var p struct {
			Name           string `json:"name"`
			TaxID          string `json:"tax_id"`
			SexDescription string `json:"sex_description"`
			Age            *int   `json:"age"`
			Addresses      []struct {
				OwnerID     int64  `json:"owner_id"`
				PostalCode  string `json:"postal_code"`
				FullAddress string `json:"full_address"`
			} `json:"addresses"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "Maria Souza", p.Name)
		assert.Equal(t, "52998224725", p.TaxID)
		assert.NotEmpty(t, p.SexDescription)
		require.NotNil(t, p.Age)
		require.Len(t, p.Addresses, 1)
		assert.Equal(t, id, p.Addresses[0].OwnerID)
		assert.Equal(t, "01001000", p.Addresses[0].PostalCode)
		assert.NotEmpty(t, p.Addresses[0].FullAddress)
	})

	t.Run("duplicate tax id", func(t *testing.T) {
		rec := app.asUser(http.MethodPost, "/api/v1/persons", mariaJSON)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, errs.CodeDuplicateTaxID, decodeError(t, rec).Code)
	})

	t.Run("malformed tax id", func(t *testing.T) {
		body := strings.Replace(mariaJSON, "529.982.247-25", "123.456.789-00", 1)
		rec := app.asUser(http.MethodPost, "/api/v1/persons", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeError(t, rec)
		assert.Equal(t, errs.CodeValidationFailed, e.Code)
		require.NotEmpty(t, e.Errors)
		assert.Equal(t, "tax_id", e.Errors[0].Field)
	})

	t.Run("missing name", func(t *testing.T) {
		body := strings.Replace(mariaJSON, `"Maria Souza"`, `""`, 1)
		body = strings.Replace(body, "529.982.247-25", "111.444.777-35", 1)
		rec := app.asUser(http.MethodPost, "/api/v1/persons", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errs.CodeValidationFailed, decodeError(t, rec).Code)
	})

	t.Run("list search and count", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, "/api/v1/persons?name=SOUZA", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var found []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
		assert.Len(t, found, 1)

		rec = app.asUser(http.MethodGet, "/api/v1/persons?name=nobody", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())

		rec = app.asUser(http.MethodGet, "/api/v1/persons/count", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"count":1}`, rec.Body.String())
	})

	t.Run("owner addresses", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, path+"/addresses", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var addrs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addrs))
		assert.Len(t, addrs, 1)
	})

	t.Run("update keeps addresses when omitted", func(t *testing.T) {
		body := `{"name":"Maria Souza Lima","tax_id":"52998224725","birth_date":"1985-03-20","sex":"F"}`
		rec := app.asUser(http.MethodPut, path, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "Maria Souza Lima")

		rec = app.asUser(http.MethodGet, path+"/addresses", "")
		var addrs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addrs))
		assert.Len(t, addrs, 1)
	})

	t.Run("update unknown person", func(t *testing.T) {
		rec := app.asUser(http.MethodPut, "/api/v1/persons/9999", `{"name":"Ghost"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errs.CodePersonNotFound, decodeError(t, rec).Code)
	})

	t.Run("update unknown person with malformed fields", func(t *testing.T) {
		rec := app.asUser(http.MethodPut, "/api/v1/persons/9999", `{"tax_id":"111.111.111-11","sex":"X"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errs.CodePersonNotFound, decodeError(t, rec).Code)
	})

	t.Run("update existing person with malformed tax id", func(t *testing.T) {
		body := `{"name":"Maria Souza","tax_id":"111.111.111-11","birth_date":"1985-03-20","sex":"F"}`
		rec := app.asUser(http.MethodPut, path, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeError(t, rec)
		assert.Equal(t, errs.CodeValidationFailed, e.Code)
		require.NotEmpty(t, e.Errors)
		assert.Equal(t, "tax_id", e.Errors[0].Field)
	})

	t.Run("export", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, "/api/v1/persons/export", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
		disposition := rec.Header().Get(echo.HeaderContentDisposition)
		assert.Regexp(t, `attachment; filename="persons-\d{8}\.csv"`, disposition)

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "id,name,tax_id,birth_date,age,sex", lines[0])
		assert.Contains(t, lines[1], "529.982.247-25")
		assert.Contains(t, lines[1], "1985-03-20")
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, "/api/v1/persons/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("admin deletes with cascade", func(t *testing.T) {
		rec := app.asAdmin(http.MethodDelete, path, "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.asUser(http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.asUser(http.MethodGet, "/api/v1/addresses/count", "")
		assert.JSONEq(t, `{"count":0}`, rec.Body.String())
	})
}

func TestPersonFilterAndStats(t *testing.T) {
	app := newTestApp(t)
	createMaria(t, app)

	joao := `{"name":"João Pereira","tax_id":"111.444.777-35","birth_date":"1970-11-02","sex":"M","addresses":[
		{"region_code":"RJ","city":"Niterói","street":"Rua da Conceição","number":10,"postal_code":"24020-080"},
		{"region_code":"SP","city":"Campinas","street":"Rua Barão de Jaguara","number":5,"postal_code":"13015-002"}
	]}`
	rec := app.asUser(http.MethodPost, "/api/v1/persons", joao)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	names := func(t *testing.T, query string) []string {
		t.Helper()
		rec := app.asUser(http.MethodGet, "/api/v1/persons"+query, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var found []struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
		out := []string{}
		for _, p := range found {
			out = append(out, p.Name)
		}
		return out
	}

	t.Run("filters", func(t *testing.T) {
		assert.Equal(t, []string{"João Pereira"}, names(t, "?sex=M"))
		assert.Equal(t, []string{"João Pereira"}, names(t, "?city=campinas"))
		assert.Equal(t, []string{"João Pereira", "Maria Souza"}, names(t, "?region=SP"))
		assert.Equal(t, []string{"Maria Souza"}, names(t, "?region=SP&sex=F"))
		assert.Equal(t, []string{}, names(t, "?name=maria&city=niter"))
	})

	t.Run("invalid filter", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, "/api/v1/persons?region=XX", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "region", decodeError(t, rec).Errors[0].Field)
	})

	t.Run("stats", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, "/api/v1/persons/stats", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stats service.PersonStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.Total)
		assert.InDelta(t, 50.0, stats.MalePercentage, 0.001)
		assert.InDelta(t, 50.0, stats.FemalePercentage, 0.001)
		require.Len(t, stats.ByRegion, 2)
		assert.Equal(t, "RJ", string(stats.ByRegion[0].RegionCode))
		assert.Equal(t, 1, stats.ByRegion[0].Count)
		assert.Equal(t, "SP", string(stats.ByRegion[1].RegionCode))
	})
}

func TestAddressRoutes(t *testing.T) {
	app := newTestApp(t)
	ownerID := createMaria(t, app)

	body := fmt.Sprintf(`{"region_code":"RJ","city":"Rio de Janeiro","street":"Avenida Atlântica","number":1702,"postal_code":"22021-001","owner_id":%d}`, ownerID)
	rec := app.asUser(http.MethodPost, "/api/v1/addresses", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID          int64  `json:"id"`
		FullAddress string `json:"full_address"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Contains(t, created.FullAddress, "Avenida Atlântica")
	path := fmt.Sprintf("/api/v1/addresses/%d", created.ID)

	t.Run("search by city", func(t *testing.T) {
		rec := app.asUser(http.MethodGet, "/api/v1/addresses?city=rio", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var found []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
		assert.Len(t, found, 1)
	})

	t.Run("unknown owner", func(t *testing.T) {
		body := `{"region_code":"RJ","city":"Rio de Janeiro","street":"Avenida Atlântica","number":1,"postal_code":"22021-001","owner_id":9999}`
		rec := app.asUser(http.MethodPost, "/api/v1/addresses", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errs.CodePersonNotFound, decodeError(t, rec).Code)
	})

	t.Run("bad region code", func(t *testing.T) {
		body := strings.Replace(body, `"RJ"`, `"XX"`, 1)
		rec := app.asUser(http.MethodPost, "/api/v1/addresses", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "region_code", decodeError(t, rec).Errors[0].Field)
	})

	t.Run("update", func(t *testing.T) {
		update := strings.Replace(body, "1702", "1800", 1)
		rec := app.asUser(http.MethodPut, path, update)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"number":1800`)
	})

	t.Run("update unknown address with malformed fields", func(t *testing.T) {
		rec := app.asUser(http.MethodPut, "/api/v1/addresses/9999", `{"region_code":"XX","city":"S","postal_code":"123"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errs.CodeAddressNotFound, decodeError(t, rec).Code)
	})

	t.Run("update existing address with short city", func(t *testing.T) {
		update := strings.Replace(body, `"Rio de Janeiro"`, `"R"`, 1)
		rec := app.asUser(http.MethodPut, path, update)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "city", decodeError(t, rec).Errors[0].Field)
	})

	t.Run("admin delete", func(t *testing.T) {
		rec := app.asAdmin(http.MethodDelete, path, "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.asUser(http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errs.CodeAddressNotFound, decodeError(t, rec).Code)
	})
}

func TestPostalRoutes(t *testing.T) {
	app := newTestApp(t)

	rec := app.asUser(http.MethodGet, "/api/v1/postal-codes/01001-000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"localidade":"São Paulo"`)

	rec = app.asUser(http.MethodGet, "/api/v1/postal-codes/01001000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), app.postalCalls.Load())

	rec = app.asUser(http.MethodGet, "/api/v1/postal-codes/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.CodePostalCodeInvalid, decodeError(t, rec).Code)

	rec = app.asUser(http.MethodGet, "/api/v1/postal-codes/99999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.CodePostalCodeNotFound, decodeError(t, rec).Code)

	rec = app.asUser(http.MethodDelete, "/api/v1/postal-codes/cache", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.asAdmin(http.MethodDelete, "/api/v1/postal-codes/cache", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	calls := app.postalCalls.Load()
	rec = app.asUser(http.MethodGet, "/api/v1/postal-codes/01001-000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calls+1, app.postalCalls.Load())
}
