package nodetype

import (
	"github.com/pkg/errors"
)

// ErrUnknownName is recorded when a generator reads a portlet name that was
// never assigned.
var ErrUnknownName = errors.New("unknown name")

// ErrorSink keeps the first error reported by name accessors.
type ErrorSink struct {
	err error
}

// Add records err unless an error is already recorded.
func (s *ErrorSink) Add(err error) {
	if s != nil && s.err == nil {
		s.err = err
	}
}

// Err returns the recorded error.
func (s *ErrorSink) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

// PortletNames maps portlet ids to code: variable names or expressions.
type PortletNames struct {
	owner string
	names map[string]string
	errs  *ErrorSink
}

// NewPortletNames returns an empty table reporting misses to errs.
func NewPortletNames(owner string, errs *ErrorSink) *PortletNames {
	return &PortletNames{owner: owner, names: make(map[string]string), errs: errs}
}

// Get returns the code for a portlet id. A miss is recorded in the sink.
func (p *PortletNames) Get(id string) string {
	if name, ok := p.names[id]; ok {
		return name
	}
	p.errs.Add(errors.Wrapf(ErrUnknownName, "portlet %q in %s", id, p.owner))
	return ""
}

// Has reports whether a portlet id is known.
func (p *PortletNames) Has(id string) bool {
	_, ok := p.names[id]
	return ok
}

// Set assigns the code for a portlet id.
func (p *PortletNames) Set(id, name string) {
	p.names[id] = name
}

// Len returns the number of assigned portlets.
func (p *PortletNames) Len() int {
	return len(p.names)
}
