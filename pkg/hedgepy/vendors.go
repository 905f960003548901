package hedgepy

import (
	"fmt"

	"github.com/hedgepy/broker/internal/config"
	"github.com/hedgepy/broker/internal/vendor"
	"github.com/hedgepy/broker/internal/vendors/edgar"
	"github.com/hedgepy/broker/internal/vendors/fred"
	"github.com/hedgepy/broker/internal/vendors/ibkr"
)

// vendorConstructor builds one vendor's Spec from its resolved
// config.VendorConfig. Credentials has already been resolved from a
// "$dotted.key" reference to a literal value by Config.finalize.
type vendorConstructor func(cfg config.VendorConfig) (vendor.Spec, error)

// vendorConstructors is the fixed table of vendor plugins this binary
// ships, keyed by the name operators use in configs/*.yaml's vendors:
// block. Adding a fourth vendor plugin means adding one entry here and
// importing its package above — the same shape as the teacher's
// middleware-registration style in internal/httpserver, just for vendor
// plugins instead of routes.
var vendorConstructors = map[string]vendorConstructor{
	"fred": func(cfg config.VendorConfig) (vendor.Spec, error) {
		return fred.NewSpec(cfg.Credentials)
	},
	"edgar": func(cfg config.VendorConfig) (vendor.Spec, error) {
		company, email, err := splitEdgarIdentity(cfg.Credentials)
		if err != nil {
			return vendor.Spec{}, err
		}
		return edgar.NewSpec(company, email)
	},
	"ibkr": func(cfg config.VendorConfig) (vendor.Spec, error) {
		return ibkr.NewSpec(cfg.Host, cfg.Port, cfg.ClientID)
	},
}

// RegisterVendors builds a vendor.Spec for every entry in cfg.Vendors whose
// name matches a known plugin and registers it, ready for vendor.Load.
// An unrecognized vendor name is a configuration error: the broker fails
// fast at startup rather than silently running with one fewer vendor than
// the operator configured.
func RegisterVendors(cfg *config.Config) error {
	for name, vc := range cfg.Vendors {
		ctor, ok := vendorConstructors[name]
		if !ok {
			return fmt.Errorf("hedgepy: unknown vendor %q in config (known: fred, edgar, ibkr)", name)
		}
		spec, err := ctor(vc)
		if err != nil {
			return fmt.Errorf("hedgepy: building vendor %q: %w", name, err)
		}
		vendor.Register(name, spec)
	}
	return nil
}

// splitEdgarIdentity parses EDGAR's "company:email" credentials string
// into the two fields its User-Agent requires (the source's separate
// _company/_email environment variables, joined into one config slot
// since VendorConfig has no per-vendor extension fields).
func splitEdgarIdentity(credentials string) (company, email string, err error) {
	for i := len(credentials) - 1; i >= 0; i-- {
		if credentials[i] == ':' {
			return credentials[:i], credentials[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("hedgepy: edgar credentials must be \"company:email\", got %q", credentials)
}
