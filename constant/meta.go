// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Kabegame is the canonical application identifier used for filesystem paths and CLI branding.
	Kabegame = "kabegame"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is the HTTP User-Agent string sent with every request to the content API.
	UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Accept advertises the XML payloads the OCS endpoints respond with.
	Accept = "application/xml,text/xml,*/*"
)

// OCS catalog defaults. Category 419 is "Plasma 5 Wallpaper Plugins" on the
// KDE Store; the default page size is large enough to hold the whole category
// in a single page.
const (
	DefaultOCSBaseURL = "https://api.opendesktop.org/ocs/v1"
	DefaultCategory   = 419
	DefaultPageSize   = 100
)

// Build metadata, overridable at link time via -ldflags.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
