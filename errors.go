package strata

import "fmt"

// A FormatError describes the first syntax error encountered while parsing a
// document. Parsing stops immediately; there is no recovery and no partial
// tree, so a FormatError means the whole load failed.
type FormatError struct {
	Line   int    // 1-based line number of the offending line
	Text   string // the raw offending line
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("strata: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// A UsageError reports API misuse on an otherwise valid tree, such as a
// dotted path that ends in the separator or a write through a path segment
// that already holds a non-section value.
type UsageError struct {
	Op     string // the operation that was misused, e.g. "Set"
	Reason string
}

func (e *UsageError) Error() string {
	return "strata: " + e.Op + ": " + e.Reason
}

func usageErr(op, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
