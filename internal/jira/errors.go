package jira

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	gojira "github.com/andygrunwald/go-jira"
)

// Error kinds. Match them with errors.Is.
var (
	ErrAuth              = errors.New("jira authentication failed")
	ErrTransient         = errors.New("jira unreachable")
	ErrMalformedResponse = errors.New("malformed jira response")
	ErrRequest           = errors.New("jira rejected request")
)

// Error describes a failed Jira request.
type Error struct {
	Kind   error  // one of the Err* kinds
	Op     string // "search", "changelog PROJ-1", ...
	Page   string // offset or page token at which the request failed
	Status int    // HTTP status, 0 when no response arrived
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		fmt.Fprintf(&b, " (%s", e.Op)
		if e.Page != "" {
			fmt.Fprintf(&b, " at %s", e.Page)
		}
		b.WriteString(")")
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

// AuthHint is printed alongside ErrAuth failures.
const AuthHint = "check JIRA_EMAIL and JIRA_API_TOKEN, and that the account can browse the requested projects"

// classify turns a go-jira failure into an *Error. resp may be nil when no response arrived.
func classify(op, page string, resp *gojira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return &Error{Kind: ErrTransient, Op: op, Page: page, Err: err}
	}

	e := &Error{Op: op, Page: page, Status: resp.StatusCode, Err: detail(err)}
	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Kind = ErrAuth
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		e.Kind = ErrTransient
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		e.Kind = ErrMalformedResponse
		e.Status = 0
	default:
		e.Kind = ErrRequest
	}
	return e
}

// detail prefers Jira's own error messages when the body carried them.
func detail(err error) error {
	var jerr *gojira.Error
	if errors.As(err, &jerr) && len(jerr.ErrorMessages) > 0 {
		return errors.New(strings.Join(jerr.ErrorMessages, "; "))
	}
	return err
}
