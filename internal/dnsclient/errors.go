package dnsclient

import (
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

// FailureKind classifies a failed query. Transient kinds are retried up to
// the configured attempt budget; terminal kinds come back immediately.
type FailureKind int

const (
	// FailureTimeout - no response within the per-attempt timeout.
	FailureTimeout FailureKind = iota
	// FailureServer - SERVFAIL or any other non-terminal RCODE.
	FailureServer
	// FailureNameError - NXDOMAIN, authoritative negative answer.
	FailureNameError
	// FailureNoData - NOERROR but no records of the requested type.
	FailureNoData
	// FailureMalformed - response could not be parsed; retried like SERVFAIL.
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureServer:
		return "servfail"
	case FailureNameError:
		return "nxdomain"
	case FailureNoData:
		return "nodata"
	case FailureMalformed:
		return "malformed"
	}
	return "unknown"
}

// Transient reports whether a failure of this kind is worth retrying.
func (k FailureKind) Transient() bool {
	return k == FailureTimeout || k == FailureServer || k == FailureMalformed
}

// QueryError is returned by Client.Query when a lookup fails. Kind tells the
// caller whether the failure was a terminal negative answer or a transient
// fault that exhausted its retries.
type QueryError struct {
	Name  string
	Qtype uint16
	Kind  FailureKind
	Err   error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query %s %s: %s: %v", dns.TypeToString[e.Qtype], e.Name, e.Kind, e.Err)
	}
	return fmt.Sprintf("query %s %s: %s", dns.TypeToString[e.Qtype], e.Name, e.Kind)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Terminal reports whether the failure was an authoritative negative answer
// (NXDOMAIN or NODATA) rather than an exhausted transient fault.
func (e *QueryError) Terminal() bool {
	return e.Kind == FailureNameError || e.Kind == FailureNoData
}

// KindOf extracts the failure kind from an error returned by Query. The
// second return is false if the error is not a QueryError.
func KindOf(err error) (FailureKind, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind, true
	}
	return 0, false
}
