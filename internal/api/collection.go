package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kungfuzoo/zoo/internal/metrics"
	"github.com/kungfuzoo/zoo/pkg/zoo"
	"github.com/labstack/echo/v4"
)

// Store operation labels used in metrics.
const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// collection binds one record store to its REST routes.
type collection[T any] struct {
	server *Server
	kind   zoo.Kind
	store  zoo.RecordStore[T]
}

func newCollection[T any](s *Server, kind zoo.Kind, store zoo.RecordStore[T]) *collection[T] {
	return &collection[T]{server: s, kind: kind, store: store}
}

// register adds the five CRUD routes under /<collection>.
func (h *collection[T]) register(e *echo.Echo) {
	base := "/" + h.kind.Collection
	e.GET(base, h.list)
	e.GET(base+"/:id", h.get)
	e.POST(base, h.create)
	e.PUT(base+"/:id", h.update)
	e.DELETE(base+"/:id", h.delete)
}

// list handles GET /<collection>.
func (h *collection[T]) list(c echo.Context) error {
	records, err := h.store.List(c.Request().Context())
	h.observe(opList, err)
	if err != nil {
		return h.server.handleError(c, h.kind, err)
	}

	return c.JSON(http.StatusOK, records)
}

// get handles GET /<collection>/:id.
func (h *collection[T]) get(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return h.invalidID(c)
	}

	record, err := h.store.Get(c.Request().Context(), id)
	h.observe(opGet, err)
	if err != nil {
		return h.server.handleError(c, h.kind, err)
	}

	return c.JSON(http.StatusOK, record)
}

// create handles POST /<collection>.
func (h *collection[T]) create(c echo.Context) error {
	ctx := c.Request().Context()

	var record T
	if err := bindRecord(c, &record); err != nil {
		return malformedBody(c, err)
	}

	id, err := h.store.Create(ctx, record)
	h.observe(opCreate, err)
	if err != nil {
		return h.server.handleError(c, h.kind, err)
	}

	h.server.audit.LogRecordCreate(h.kind.Collection, id, requestID(c), recordFields(record))
	h.refreshGauge(c)

	return c.JSON(http.StatusCreated, createdResponse{
		Message: h.kind.Singular + " added successfully",
		ID:      id,
	})
}

// update handles PUT /<collection>/:id.
func (h *collection[T]) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c.Param("id"))
	if err != nil {
		return h.invalidID(c)
	}

	var record T
	if err := bindRecord(c, &record); err != nil {
		return malformedBody(c, err)
	}

	err = h.store.Update(ctx, id, record)
	h.observe(opUpdate, err)
	if err != nil {
		return h.server.handleError(c, h.kind, err)
	}

	h.server.audit.LogRecordUpdate(h.kind.Collection, id, requestID(c), recordFields(record))

	return c.JSON(http.StatusOK, messageResponse{
		Message: h.kind.Singular + " updated successfully",
	})
}

// delete handles DELETE /<collection>/:id.
func (h *collection[T]) delete(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return h.invalidID(c)
	}

	err = h.store.Delete(c.Request().Context(), id)
	h.observe(opDelete, err)
	if err != nil {
		return h.server.handleError(c, h.kind, err)
	}

	h.server.audit.LogRecordDelete(h.kind.Collection, id, requestID(c))
	h.refreshGauge(c)

	return c.JSON(http.StatusOK, messageResponse{
		Message: h.kind.Singular + " deleted successfully",
	})
}

func (h *collection[T]) invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResponse{
		Error: "Invalid " + strings.ToLower(h.kind.Singular) + " id",
	})
}

// observe records the outcome of one store call.
func (h *collection[T]) observe(op string, err error) {
	if h.server.metrics == nil {
		return
	}

	result := metrics.ResultOK
	switch {
	case errors.Is(err, zoo.ErrNotFound):
		result = metrics.ResultNotFound
	case err != nil:
		result = metrics.ResultError
	}
	h.server.metrics.RecordStoreOperation(h.kind.Collection, op, result)
}

func (h *collection[T]) refreshGauge(c echo.Context) {
	if h.server.metrics == nil {
		return
	}
	if n, err := h.store.Len(c.Request().Context()); err == nil {
		h.server.metrics.SetRecords(h.kind.Collection, n)
	}
}

func malformedBody(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{
		Error:   "Malformed request body",
		Message: err.Error(),
	})
}
