package gbnf

import "log/slog"

// ConverterOption configures a Converter built by NewConverter.
type ConverterOption func(*Converter)

// WithFetch installs fetch as the collaborator used to retrieve the
// target document of "https://"/"http://" $refs. The default Converter
// has no fetcher and rejects every remote ref.
func WithFetch(fetch FetchFunc) ConverterOption {
	return func(c *Converter) {
		c.fetch = fetch
	}
}

// WithDefaultHTTPFetch installs the built-in net/http fetcher (see
// loaders.go), for callers who want real remote $ref resolution without
// writing their own FetchFunc.
func WithDefaultHTTPFetch() ConverterOption {
	return WithFetch(defaultHTTPFetch)
}

// WithDotall makes "." in a "pattern" regular expression match a
// newline too. Off by default, matching ECMA-262 without the "s"
// flag.
func WithDotall(dotall bool) ConverterOption {
	return func(c *Converter) {
		c.dotall = dotall
	}
}

// WithLogger installs logger as the sink for non-fatal diagnostics
// (currently, unsupported regex group syntax that was worked around
// rather than rejected). Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ConverterOption {
	return func(c *Converter) {
		c.logger = logger
	}
}

// NewConverter builds a Converter ready for a single Convert call.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
