package rpc

import (
	"errors"

	goerrors "github.com/go-errors/errors"
)

// ErrBadHexOrDecimal is returned when a request field that must be a hex
// string or a base-10 big integer fails to parse as one.
var ErrBadHexOrDecimal = errors.New("rpc: malformed hex or decimal field")

// ErrBadPayload is returned when ft_on_transfer's msg cannot be parsed as
// one of its known tagged-union variants — an unrecognized or missing
// "type" discriminator, or a variant whose required fields don't decode.
var ErrBadPayload = errors.New("rpc: unparseable ft_on_transfer msg")

// ErrUnauthorized is returned when a request's macaroon fails
// verification or lacks the permission the endpoint requires.
var ErrUnauthorized = errors.New("rpc: unauthorized")

// wrap annotates err with a stack trace for operator logs, without
// changing the identity errors.Is sees. A nil err wraps to nil.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, 1)
}
