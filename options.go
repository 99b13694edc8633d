package strata

import "fmt"

// Option configures parsing and encoding.
type Option func(*options) error

type options struct {
	indent  int
	newline string
	sep     rune
}

const defaultIndent = 4

func newOptions(opts []Option) (options, error) {
	o := options{
		indent:  defaultIndent,
		newline: "\n",
		sep:     '.',
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return o, err
		}
	}
	return o, nil
}

// Indent returns an Option that sets the number of spaces emitted per nesting
// level. The count n must be a positive integer.
func Indent(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("strata: indent spaces must be a positive integer")
		}
		o.indent = n
		return nil
	}
}

// Newline returns an Option that sets the line terminator used when encoding.
// Only "\n" and "\r\n" are accepted.
func Newline(s string) Option {
	return func(o *options) error {
		if s != "\n" && s != "\r\n" {
			return fmt.Errorf("strata: newline must be \\n or \\r\\n")
		}
		o.newline = s
		return nil
	}
}

// Separator returns an Option that sets the path separator installed on
// parsed sections. It defaults to '.'.
func Separator(r rune) Option {
	return func(o *options) error {
		switch r {
		case 0, ' ', '\\', '\n', '#':
			return fmt.Errorf("strata: %q cannot be used as a path separator", r)
		}
		o.sep = r
		return nil
	}
}
