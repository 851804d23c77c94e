package handler // handler holds the echo HTTP handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// dbTimeout bounds the store calls of a single request.
const dbTimeout = 5 * time.Second

// RequestValidator adapts go-playground/validator to echo.Validator.
// Field names in errors use the json tag.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error { return rv.v.Struct(i) }

// requestError is a malformed request: 400 with optional field detail.
type requestError struct {
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// decode binds the JSON body into req and runs its validate tags.
func decode(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid body")
	}
	if err := c.Validate(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return badRequest("invalid body")
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fieldPath(fe.Namespace())] = fe.Tag()
		}
		return &requestError{msg: "invalid body", fields: fields}
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

// csvIDs parses "1,2,x,3" into [1 2 3]; non-numeric parts are ignored.
func csvIDs(s string) []uint64 {
	var out []uint64
	for _, p := range strings.Split(s, ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64); err == nil && id > 0 {
			out = append(out, id)
		}
	}
	return out
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail writes the JSON error response for err.  Unknown errors are
// logged and reported as 500 without detail.
func fail(c echo.Context, log *zap.Logger, err error) error {
	var (
		reqErr *requestError
		verr   *booking.ValidationError
		empty  *booking.EmptyOrderError
		cons   *booking.ConsistencyError
	)
	switch {
	case errors.As(err, &reqErr):
		body := echo.Map{"error": reqErr.msg}
		if len(reqErr.fields) > 0 {
			body["fields"] = reqErr.fields
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &verr):
		return c.JSON(validationStatus(verr), validationBody(verr))
	case errors.As(err, &empty):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty_order", "message": empty.Error()})
	case errors.As(err, &cons):
		log.Error("consistency error", zap.Error(err), zap.String("path", c.Path()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	case errors.Is(err, repository.ErrGenreNotFound),
		errors.Is(err, repository.ErrActorNotFound),
		errors.Is(err, repository.ErrHallNotFound),
		errors.Is(err, repository.ErrMovieNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrGenreExists), errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrUnknownReference):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "timeout"})
	}
	log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// ticketProblem is one entry of an order validation response.
type ticketProblem struct {
	Index     int    `json:"index"`
	Field     string `json:"field"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	SessionID uint64 `json:"movie_session"`
	Row       int    `json:"row"`
	Seat      int    `json:"seat"`
	Min       *int   `json:"min,omitempty"`
	Max       *int   `json:"max,omitempty"`
}

// validationStatus is 409 when the order only lost on seat collisions
// and 400 when the request itself was wrong.
func validationStatus(verr *booking.ValidationError) int {
	if verr.OnlySeatTaken() {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func validationBody(verr *booking.ValidationError) echo.Map {
	problems := make([]ticketProblem, len(verr.Tickets))
	for i, te := range verr.Tickets {
		p := ticketProblem{
			Index: te.Index, Field: te.Field, Message: te.Err.Error(),
			SessionID: te.SessionID, Row: te.Row, Seat: te.Seat,
		}
		var (
			ob *booking.OutOfBoundsError
			st *booking.SeatTakenError
		)
		switch {
		case errors.As(te.Err, &ob):
			p.Code = "out_of_bounds"
			p.Min, p.Max = &ob.Min, &ob.Max
		case errors.As(te.Err, &st):
			p.Code = "seat_taken"
		case errors.Is(te.Err, booking.ErrSessionNotFound):
			p.Code = "unknown_session"
		default:
			p.Code = "invalid"
		}
		problems[i] = p
	}
	code := "validation_failed"
	if verr.OnlySeatTaken() {
		code = "seat_taken"
	}
	return echo.Map{"error": code, "tickets": problems}
}
