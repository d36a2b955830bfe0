package pricing

// DiagnosticKind classifies a non-fatal pricing anomaly.
type DiagnosticKind string

const (
	// UnresolvableOption: the selection names a value the product does not
	// offer (usually a stale shared link). The delta falls back to zero.
	UnresolvableOption DiagnosticKind = "unresolvable_option"
	// NegativePrice: option deltas pushed the price below zero. The price is
	// clamped to zero; the catalog data needs fixing.
	NegativePrice DiagnosticKind = "negative_price"
)

// Diagnostic is reported by the Resolver instead of failing the request.
type Diagnostic struct {
	Kind        DiagnosticKind
	ProductSlug string
	Group       string
	Value       string
	Price       int64
}
