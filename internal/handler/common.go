package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/middleware"
)

const requestTimeout = 5 * time.Second

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
    v := validator.New()
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return v
}

var errInvalidBody = errors.New("invalid request body")

// bindValid binds the request body into dst and runs its validate tags.
// The returned error is safe to show to clients.
func bindValid(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return errInvalidBody
    }
    if err := validate.Struct(dst); err != nil {
        var ve validator.ValidationErrors
        if errors.As(err, &ve) && len(ve) > 0 {
            return fieldError(ve[0])
        }
        return errInvalidBody
    }
    return nil
}

func fieldError(fe validator.FieldError) error {
    switch fe.Tag() {
    case "required":
        return fmt.Errorf("%s is required", fe.Field())
    case "email":
        return fmt.Errorf("%s must be a valid email address", fe.Field())
    case "min":
        return fmt.Errorf("%s must be at least %s characters", fe.Field(), fe.Param())
    case "gt":
        return fmt.Errorf("%s must be greater than %s", fe.Field(), fe.Param())
    case "eqfield":
        return fmt.Errorf("%s must match %s", fe.Field(), strings.ToLower(fe.Param()))
    case "oneof":
        return fmt.Errorf("%s must be one of: %s", fe.Field(), fe.Param())
    case "uuid":
        return fmt.Errorf("%s must be a valid id", fe.Field())
    }
    return fmt.Errorf("%s is invalid", fe.Field())
}

func badRequest(c echo.Context, err error) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor returns the authenticated caller.
func actor(c echo.Context) (booking.Actor, bool) {
    id, ok := middleware.UserID(c)
    if !ok {
        return booking.Actor{}, false
    }
    return booking.Actor{UserID: id, Role: middleware.Role(c)}, true
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// paramID parses a uuid path parameter.
func paramID(c echo.Context, name string) (uuid.UUID, bool) {
    id, err := uuid.Parse(c.Param(name))
    return id, err == nil
}

var kindStatus = map[booking.Kind]int{
    booking.KindNotFound:         http.StatusNotFound,
    booking.KindEventInPast:      http.StatusBadRequest,
    booking.KindInvalid:          http.StatusBadRequest,
    booking.KindEventFull:        http.StatusBadRequest,
    booking.KindAlreadyBooked:    http.StatusConflict,
    booking.KindAlreadyCancelled: http.StatusConflict,
    booking.KindConflict:         http.StatusConflict,
    booking.KindForbidden:        http.StatusForbidden,
    booking.KindUnavailable:      http.StatusServiceUnavailable,
    booking.KindInternal:         http.StatusInternalServerError,
}

// writeError renders err according to its booking.Kind.  Infrastructure
// failures are logged and hidden from the client.
func writeError(c echo.Context, err error) error {
    kind := booking.KindOf(err)
    status, ok := kindStatus[kind]
    if !ok {
        status = http.StatusInternalServerError
    }
    switch kind {
    case booking.KindUnavailable:
        logrus.WithError(err).WithField("path", c.Path()).Warn("request failed on a busy resource")
        c.Response().Header().Set("Retry-After", "1")
        return c.JSON(status, echo.Map{"error": "temporarily unavailable, please retry"})
    case booking.KindInternal:
        logrus.WithError(err).WithField("path", c.Path()).Error("request failed")
        return c.JSON(status, echo.Map{"error": "internal error"})
    }
    return c.JSON(status, echo.Map{"error": err.Error()})
}
