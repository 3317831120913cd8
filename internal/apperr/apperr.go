// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to the status code the REST layer answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Reason codes surfaced to API clients.
const (
	CodeEmptyOrder          = "EMPTY_ORDER"
	CodeInvalidItem         = "INVALID_ITEM"
	CodeInvalidSale         = "INVALID_SALE"
	CodeInvalidCoupon       = "INVALID_COUPON"
	CodeCouponExpired       = "COUPON_EXPIRED"
	CodeLoginRequired       = "LOGIN_REQUIRED"
	CodeNotEligible         = "NOT_ELIGIBLE"
	CodeUsageLimitReached   = "USAGE_LIMIT_REACHED"
	CodeNotApplicable       = "NOT_APPLICABLE"
	CodeMinimumPurchase     = "MINIMUM_PURCHASE_NOT_MET"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeCancelWindowExpired = "CANCEL_WINDOW_EXPIRED"
	CodeRefundNotAllowed    = "REFUND_NOT_ALLOWED"
	CodeStatusChanged       = "STATUS_CHANGED"
	CodeOrderIDExhausted    = "ORDER_ID_EXHAUSTED"
	CodeDuplicate           = "DUPLICATE"
	CodePaymentFailed       = "PAYMENT_FAILED"
	CodePaymentMismatch     = "PAYMENT_MISMATCH"
	CodePaymentNotRequired  = "PAYMENT_NOT_REQUIRED"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func External(message string, err error) *Error {
	return &Error{Kind: KindExternal, Code: "EXTERNAL_SERVICE", Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf reports the reason code of the first *Error in err's chain.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// MessageOf reports the client-facing message of the first *Error in err's
// chain, without the wrapped cause.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
