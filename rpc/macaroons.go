package rpc

import (
	"context"
	"net/http"
	"strings"

	"gopkg.in/macaroon-bakery.v2/bakery"
	"gopkg.in/macaroon.v2"
)

// The two permissions this daemon's macaroons can grant. A "read"
// macaroon only authorizes balance/key lookups; a "write" macaroon
// additionally authorizes the operations that move funds or open/close
// an escrow. admin.macaroon, the one handed to swapcli by default, is
// minted with both.
var (
	opRead  = bakery.Op{Entity: "swapcore", Action: "read"}
	opWrite = bakery.Op{Entity: "swapcore", Action: "write"}
)

// MacaroonService mints and verifies the bearer macaroons that gate every
// write-capable RPC. It wraps bakery.Bakery the way lnd's own macaroons
// package does, reduced to the single-service, no-third-party-discharge
// case this daemon needs: one root key store, two permissions, no
// caveat-based delegation.
type MacaroonService struct {
	bakery *bakery.Bakery
}

// NewMacaroonService returns a service with a fresh, in-memory root key.
// A daemon that wants macaroons to survive a restart persists the root
// key itself and passes a bakery.RootKeyStore backed by that file instead
// of bakery.NewMemRootKeyStore.
func NewMacaroonService() *MacaroonService {
	b := bakery.New(bakery.BakeryParams{
		RootKeyStore: bakery.NewMemRootKeyStore(),
		Location:     "swapcore",
	})

	return &MacaroonService{bakery: b}
}

// BakeAdmin mints a macaroon authorized for both opRead and opWrite.
func (m *MacaroonService) BakeAdmin(ctx context.Context) (*macaroon.Macaroon, error) {
	mac, err := m.bakery.Oven.NewMacaroon(ctx, bakery.LatestVersion, nil, opRead, opWrite)
	if err != nil {
		return nil, err
	}
	return mac.M(), nil
}

// BakeReadOnly mints a macaroon authorized only for opRead.
func (m *MacaroonService) BakeReadOnly(ctx context.Context) (*macaroon.Macaroon, error) {
	mac, err := m.bakery.Oven.NewMacaroon(ctx, bakery.LatestVersion, nil, opRead)
	if err != nil {
		return nil, err
	}
	return mac.M(), nil
}

// Authorize checks that mac grants op, returning ErrUnauthorized if not.
func (m *MacaroonService) Authorize(ctx context.Context, mac *macaroon.Macaroon, op bakery.Op) error {
	authChecker := m.bakery.Checker.Auth(macaroon.Slice{mac})

	if _, _, err := authChecker.Allow(ctx, op); err != nil {
		return ErrUnauthorized
	}
	return nil
}

// macaroonFromRequest extracts and unmarshals the hex-encoded macaroon
// carried in the request's Macaroon header, the same header name lncli
// sends its macaroon under.
func macaroonFromRequest(r *http.Request) (*macaroon.Macaroon, error) {
	header := strings.TrimSpace(r.Header.Get("Macaroon"))
	if header == "" {
		return nil, ErrUnauthorized
	}

	raw, err := hexDecode(header)
	if err != nil {
		return nil, ErrUnauthorized
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(raw); err != nil {
		return nil, ErrUnauthorized
	}

	return mac, nil
}
