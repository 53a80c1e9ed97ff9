package signedorder

import "errors"

var (
	// ErrNonceReused is returned by Verify when order.Nonce is already
	// present in the supplied NonceSet.
	ErrNonceReused = errors.New("signedorder: nonce already consumed")

	// ErrBadSigFormat is returned when the signature or public key is
	// not the expected raw Ed25519 byte length.
	ErrBadSigFormat = errors.New("signedorder: malformed signature or public key")

	// ErrBadSig is returned when Ed25519 verification fails.
	ErrBadSig = errors.New("signedorder: signature verification failed")

	// ErrFieldOutOfRange is returned when an order field cannot be
	// encoded, e.g. a negative or over-wide Nonce/Amount.
	ErrFieldOutOfRange = errors.New("signedorder: order field out of range")

	// ErrKeyNotRegistered is returned by callers (not by Verify itself)
	// when no registered key for the order's maker matches the supplied
	// public key.
	ErrKeyNotRegistered = errors.New("signedorder: public key not registered for maker")
)
