// Package report defines the Report Adapter boundary (§2): the review
// engine's merged payload crosses here into whatever renders it for a
// human (HTML, terminal, CI annotation). The renderer itself is out of
// scope (§1) — this package only names the interface a concrete adapter
// would implement.
package report

import "github.com/sindudeva/revguard/internal/review"

// Adapter takes a completed review payload and hands it off to an
// external renderer. A concrete implementation is out of scope; this
// interface exists so internal/cmd can depend on "some adapter" without
// depending on any one rendering technology.
type Adapter interface {
	Render(result *review.Result) error
}

// NopAdapter discards the payload. It satisfies Adapter for callers
// that only need the review to run (e.g. `revguard --format json`,
// which renders by encoding result directly rather than through an
// Adapter).
type NopAdapter struct{}

// Render implements Adapter by doing nothing.
func (NopAdapter) Render(*review.Result) error { return nil }
