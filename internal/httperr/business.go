package httperr

import "errors"

// BusinessError is an expected domain failure identified by a stable code.
// Handlers map the code to a status; the webhook ledger stores it as the
// event's error message.
type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string { return e.Code }

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

// AsBusiness extracts the business error, if any, from err's chain.
func AsBusiness(err error) (BusinessError, bool) {
	var be BusinessError
	ok := errors.As(err, &be)
	return be, ok
}

func IsBusiness(err error, code string) bool {
	be, ok := AsBusiness(err)
	return ok && be.Code == code
}
