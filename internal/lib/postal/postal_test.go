package postal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const viaCEPBody = `{
  "cep": "01001-000",
  "logradouro": "Praça da Sé",
  "complemento": "lado ímpar",
  "bairro": "Sé",
  "localidade": "São Paulo",
  "uf": "SP",
  "ibge": "3550308",
  "gia": "1004",
  "ddd": "11",
  "siafi": "7107",
  "regiao": "Sudeste"
}`

func newDirectory(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestService(baseURL string) *Service {
	return NewService(
		NewClient(baseURL, time.Second, 2*time.Second),
		NewCache(16, 0, nil, nil),
		nil,
	)
}

func TestLookup(t *testing.T) {
	srv, calls := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/01001000/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, viaCEPBody)
	})
	svc := newTestService(srv.URL)
	ctx := context.Background()

	r, err := svc.Lookup(ctx, "01001-000")
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", r.City)
	assert.Equal(t, "SP", r.RegionCode)
	assert.Equal(t, "3550308", r.IBGE)
	assert.False(t, bool(r.NotFound))

	again, err := svc.Lookup(ctx, "01001000")
	require.NoError(t, err)
	assert.Same(t, r, again)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLookupInvalidInput(t *testing.T) {
	srv, calls := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {})
	svc := newTestService(srv.URL)

	for _, raw := range []string{"", "abc", "1234-567", "123456789"} {
		_, err := svc.Lookup(context.Background(), raw)
		assert.True(t, errs.HasCode(err, errs.CodePostalCodeInvalid), raw)
	}
	assert.Zero(t, calls.Load())
}

func TestLookupNotFound(t *testing.T) {
	for name, body := range map[string]string{
		"boolean flag": `{"erro": true}`,
		"string flag":  `{"erro": "true"}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})
			svc := newTestService(srv.URL)

			_, err := svc.Lookup(context.Background(), "99999999")
			assert.True(t, errs.HasCode(err, errs.CodePostalCodeNotFound))
			assert.Zero(t, svc.cache.Len())
		})
	}
}

func TestLookupFailed(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv, _ := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		_, err := newTestService(srv.URL).Lookup(context.Background(), "01001000")

		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, errs.CodePostalLookupFailed, httpErr.Code)
		assert.Equal(t, http.StatusBadGateway, httpErr.Status)
		assert.Contains(t, httpErr.Message, "400")
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv, _ := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>")
		})
		_, err := newTestService(srv.URL).Lookup(context.Background(), "01001000")
		assert.True(t, errs.HasCode(err, errs.CodePostalLookupFailed))
	})

	t.Run("transport failure", func(t *testing.T) {
		srv, _ := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()

		_, err := newTestService(srv.URL).Lookup(context.Background(), "01001000")
		assert.True(t, errs.HasCode(err, errs.CodePostalLookupFailed))
	})
}

type blockingFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Fetch(_ context.Context, code string) (*Result, error) {
	if f.calls.Add(1) == 1 {
		close(f.started)
	}
	<-f.release
	return &Result{PostalCode: code, City: "Recife", RegionCode: "PE"}, nil
}

func TestConcurrentMissesShareOneCall(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(fetcher, NewCache(16, 0, nil, nil), nil)

	const callers = 20
	results := make([]*Result, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := svc.Lookup(context.Background(), "50030-230")
			assert.NoError(t, err)
			results[i] = r
		}()
	}

	<-fetcher.started
	close(fetcher.release)
	wg.Wait()

	assert.EqualValues(t, 1, fetcher.calls.Load())
	for _, r := range results {
		assert.Equal(t, "Recife", r.City)
	}
}

func TestClear(t *testing.T) {
	srv, calls := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, viaCEPBody)
	})
	svc := newTestService(srv.URL)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "01001000")
	require.NoError(t, err)

	svc.Clear()
	assert.Zero(t, svc.cache.Len())

	_, err = svc.Lookup(ctx, "01001000")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCacheIsBounded(t *testing.T) {
	cache := NewCache(2, 0, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "00000001", &Result{})
	cache.Set(ctx, "00000002", &Result{})
	cache.Set(ctx, "00000003", &Result{})

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(ctx, "00000001")
	assert.False(t, ok)
}

func TestCacheTTL(t *testing.T) {
	cache := NewCache(4, 50*time.Millisecond, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "01001000", &Result{})
	_, ok := cache.Get(ctx, "01001000")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := cache.Get(ctx, "01001000")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
