package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/middleware"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/deppfellow/civil-registry/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler carries the server container into every HTTP handler.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc receives a bound and validated request.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// LookupFunc confirms that the record an update targets exists. It runs
// between binding and validation, so an unknown id answers 404 whatever
// the payload holds.
type LookupFunc[Req validation.Validatable] func(c echo.Context, req Req) error

// Attachment names a downloadable export. The served file name carries the
// UTC date, e.g. persons-20240601.csv.
type Attachment struct {
	Name        string
	Ext         string
	ContentType string
}

func (a Attachment) filename(now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", a.Name, now.UTC().Format("20060102"), a.Ext)
}

// responder writes a handler result. describe reports facts about the
// result to New Relic and may be nil.
type responder struct {
	operation string
	write     func(c echo.Context, result any) error
	describe  func(txn *newrelic.Transaction, result any)
}

func jsonResponder(status int) responder {
	return responder{
		operation: "handler",
		write: func(c echo.Context, result any) error {
			return c.JSON(status, result)
		},
	}
}

func noContentResponder(status int) responder {
	return responder{
		operation: "handler_no_content",
		write: func(c echo.Context, _ any) error {
			return c.NoContent(status)
		},
	}
}

func attachmentResponder(a Attachment) responder {
	return responder{
		operation: "handler_file",
		write: func(c echo.Context, result any) error {
			data, _ := result.([]byte)
			c.Response().Header().Set(echo.HeaderContentDisposition,
				fmt.Sprintf("attachment; filename=%q", a.filename(time.Now())))
			return c.Blob(http.StatusOK, a.ContentType, data)
		},
		describe: func(txn *newrelic.Transaction, result any) {
			txn.AddAttribute("file.content_type", a.ContentType)
			if data, ok := result.([]byte); ok {
				txn.AddAttribute("file.size_bytes", len(data))
			}
		},
	}
}

// pipeline is one request passing through bind, lookup, validate and
// handler. Each stage is timed and reported under its own name.
type pipeline struct {
	logger zerolog.Logger
	txn    *newrelic.Transaction
	start  time.Time
}

func newPipeline(c echo.Context, operation string) *pipeline {
	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", c.Path())
	}

	return &pipeline{
		logger: middleware.GetLogger(c).With().
			Str("operation", operation).
			Str("method", c.Request().Method).
			Str("route", c.Path()).
			Logger(),
		txn:   txn,
		start: time.Now(),
	}
}

func (p *pipeline) stage(name string, fn func() error) error {
	began := time.Now()
	err := fn()
	took := time.Since(began)

	status := "success"
	if err != nil {
		status = "failed"
	}
	if p.txn != nil {
		p.txn.AddAttribute(name+".status", status)
		p.txn.AddAttribute(name+".duration_ms", took.Milliseconds())
		if err != nil {
			p.txn.NoticeError(nrpkgerrors.Wrap(err))
		}
	}

	if err == nil {
		p.logger.Debug().Str("stage", name).Dur("duration", took).Msg("stage completed")
		return nil
	}

	event := p.logger.Error()
	if isClientError(err) {
		event = p.logger.Warn()
	}
	event.Err(err).
		Str("stage", name).
		Dur("duration", took).
		Dur("total_duration", time.Since(p.start)).
		Msg("request rejected")
	return err
}

// isClientError reports whether err maps to a 4xx response. Those are
// expected in a registry (unknown ids, bad tax ids) and log as warnings.
func isClientError(err error) bool {
	var httpErr *errs.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status < http.StatusInternalServerError
}

func serve[Req validation.Validatable](
	c echo.Context,
	proto Req,
	lookup LookupFunc[Req],
	run func(c echo.Context, req Req) (any, error),
	out responder,
) error {
	p := newPipeline(c, out.operation)
	p.logger.Info().Msg("handling request")

	req := newRequest(proto)
	if err := p.stage("bind", func() error { return validation.Bind(c, req) }); err != nil {
		return err
	}
	if lookup != nil {
		if err := p.stage("lookup", func() error { return lookup(c, req) }); err != nil {
			return err
		}
	}
	if err := p.stage("validation", func() error { return validation.Check(req) }); err != nil {
		return err
	}

	var result any
	err := p.stage("handler", func() (err error) {
		result, err = run(c, req)
		return err
	})
	if err != nil {
		return err
	}

	if p.txn != nil && out.describe != nil {
		out.describe(p.txn, result)
	}
	if p.txn != nil {
		p.txn.AddAttribute("total.duration_ms", time.Since(p.start).Milliseconds())
	}
	p.logger.Info().Dur("total_duration", time.Since(p.start)).Msg("request completed successfully")

	return out.write(c, result)
}

// newRequest returns a zero value of the prototype's type so concurrent
// requests never bind into the same payload.
func newRequest[Req validation.Validatable](proto Req) Req {
	t := reflect.TypeOf(proto)
	if t == nil || t.Kind() != reflect.Pointer {
		return proto
	}
	return reflect.New(t.Elem()).Interface().(Req)
}

// Handle wraps a handler whose result is written as JSON with status.
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return serve(c, req, nil, func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, jsonResponder(status))
	}
}

// HandleUpdate is Handle for PUT routes: lookup runs before the payload is
// validated and the result is written with 200.
func HandleUpdate[Req validation.Validatable, Res any](
	h Handler,
	lookup LookupFunc[Req],
	handler HandlerFunc[Req, Res],
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return serve(c, req, lookup, func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, jsonResponder(http.StatusOK))
	}
}

// HandleFile wraps a handler whose result is sent as a dated attachment.
func HandleFile[Req validation.Validatable](
	h Handler,
	handler HandlerFunc[Req, []byte],
	req Req,
	attachment Attachment,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return serve(c, req, nil, func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, attachmentResponder(attachment))
	}
}

func HandleNoContent[Req validation.Validatable](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return serve(c, req, nil, func(c echo.Context, req Req) (any, error) {
			return nil, handler(c, req)
		}, noContentResponder(status))
	}
}
