package protocol

// Wire-format markers for embedded directives.
const (
	// OpenPrefix starts every directive span, regardless of namespace.
	OpenPrefix = "[yolla:"

	// TaskMarker opens a task-namespace directive.
	TaskMarker = "[yolla:task"

	// RouteMarker opens a route-namespace directive. The namespace is
	// reserved: spans are extracted and stripped like task directives but
	// always parse as Unknown.
	RouteMarker = "[yolla:route"

	// CloseDelim terminates a directive span.
	CloseDelim = ']'
)

// YollaDir is the user-level state directory (e.g., ~/.yolla).
const YollaDir = ".yolla"
