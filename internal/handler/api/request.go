// Package api serves the JSON API of the cart, order and catalog services.
// Handlers decode requests, read the actor placed on the context by the
// authentication middleware and translate service errors with
// handler.ErrorResponse.
package api

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/greencart/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into dst and checks its struct tags.
func bind(c echo.Context, op string, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return domain.Invalid(op, "Request body is not valid JSON")
	}

	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid(op, "Request body is invalid")
	}

	ve := &domain.ValidationError{Op: op, Fields: map[string]string{}}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			ve.Fields[fe.Field()] = "is required"
		case "max":
			ve.Fields[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			ve.Fields[fe.Field()] = "is invalid"
		}
	}
	return ve
}

// actor returns the authenticated caller.
func actor(c echo.Context) (domain.Actor, error) {
	a, ok := domain.ActorFromContext(c.Request().Context())
	if !ok {
		return domain.Actor{}, domain.Unauthorized("api", "Authentication required")
	}
	return a, nil
}

func uuidParam(c echo.Context, op, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(op, name, "is not a valid id")
	}
	return id, nil
}

// pageQuery reads ?page= and ?limit=. Missing values are left at zero for
// domain.NewPage to default.
func pageQuery(c echo.Context, op string) (domain.Page, error) {
	var (
		page domain.Page
		err  error
	)
	if page.Number, err = intQuery(c, op, "page"); err != nil {
		return page, err
	}
	if page.Limit, err = intQuery(c, op, "limit"); err != nil {
		return page, err
	}
	return page, nil
}

func intQuery(c echo.Context, op, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(op, name, "must be a positive integer")
	}
	return n, nil
}

const dateLayout = "2006-01-02"

// timeQuery accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func timeQuery(c echo.Context, op, name string, endOfDay bool) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, domain.NewValidationError(op, name, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// orderFilterQuery builds an order filter from the query string. Scoping to
// the caller happens in the service.
func orderFilterQuery(c echo.Context, op string) (domain.OrderFilter, error) {
	var (
		filter domain.OrderFilter
		err    error
	)

	filter.Status = domain.OrderStatus(strings.ToLower(c.QueryParam("status")))
	filter.ProductQuery = strings.TrimSpace(c.QueryParam("search"))

	if raw := c.QueryParam("userId"); raw != "" {
		if filter.UserID, err = uuid.Parse(raw); err != nil {
			return filter, domain.NewValidationError(op, "userId", "is not a valid id")
		}
	}
	if filter.From, err = timeQuery(c, op, "from", false); err != nil {
		return filter, err
	}
	if filter.To, err = timeQuery(c, op, "to", true); err != nil {
		return filter, err
	}
	if filter.Page, err = pageQuery(c, op); err != nil {
		return filter, err
	}
	return filter, nil
}
