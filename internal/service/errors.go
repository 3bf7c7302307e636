package service

import (
	"errors"

	"github.com/dukerupert/greencart/internal/domain"
)

// Checkout errors
var (
	ErrProductGone = &domain.Error{Code: domain.ENOTFOUND, Message: "A product in your cart is no longer available"}
)

// Order lifecycle errors
var (
	ErrNotCancellable  = &domain.Error{Code: domain.ESTATE, Message: "Order can no longer be cancelled"}
	ErrStatusForbidden = &domain.Error{Code: domain.EFORBIDDEN, Message: "You are not allowed to change order status"}
	ErrOrderForbidden  = &domain.Error{Code: domain.EFORBIDDEN, Message: "You do not have access to this order"}
	ErrInvalidRange    = &domain.Error{Code: domain.EINVALID, Message: "from must not be after to"}
)

// passThrough returns err unchanged when it already carries a code callers
// understand and wraps anything else as an internal error.
func passThrough(err error, op, message string) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	var se *domain.StockError
	if errors.As(err, &se) {
		return err
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return domain.Internal(err, op, message)
}

// withOp copies a shared coded error and stamps the failing operation.
func withOp(err *domain.Error, op string) error {
	cp := *err
	cp.Op = op
	return &cp
}
