// Package tlerr defines the error taxonomy used across tilealign: the
// fatal errors the tool classifies are ConfigError, IOError, or
// FormatError, so cmd/tilealign can choose an exit code by errors.As
// instead of string-matching messages; any other error (flag parsing,
// transport failures) gets the generic exit status.
package tlerr

import "fmt"

// ConfigError reports an incompatible or out-of-range option combination
// detected before alignment begins.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return "config error: " + e.msg }

// NewConfig builds a ConfigError with a formatted message.
func NewConfig(format string, args ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// IOError reports an unreadable/unwritable file, an unseekable query file
// used with threads>1, or a shard rename/merge failure.
type IOError struct {
	msg string
	err error
}

func (e *IOError) Error() string {
	if e.err != nil {
		return "I/O error: " + e.msg + ": " + e.err.Error()
	}
	return "I/O error: " + e.msg
}

func (e *IOError) Unwrap() error { return e.err }

// NewIO wraps err with a message describing what I/O operation failed.
func NewIO(msg string, err error) *IOError {
	return &IOError{msg: msg, err: err}
}

// FormatError reports a malformed FASTA/2bit/NIB/ooc file.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return "format error: " + e.msg }

// NewFormat builds a FormatError with a formatted message.
func NewFormat(format string, args ...interface{}) *FormatError {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}
