package sqlstore

import goerrors "github.com/go-errors/errors"

// wrap annotates err with a stack trace for operator logs, without
// changing the identity errors.Is sees. A nil err wraps to nil.
func wrap(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, 1)
}
