package domain

import (
	"errors"

	"example.com/hostspin/internal/model"
)

// Filter restricts a cycle to an allow-list of domains. The zero value
// allows everything.
type Filter struct {
	allow map[string]bool
}

// NewFilter builds a Filter from the configured domain names. Any invalid
// name fails the whole list: dropping it could leave the list empty, which
// would widen the filter to every domain.
func NewFilter(domains []string) (Filter, error) {
	f := Filter{}
	var errs []error
	for _, d := range domains {
		n, err := CheckDomain(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if f.allow == nil {
			f.allow = map[string]bool{}
		}
		f.allow[n] = true
	}
	if len(errs) > 0 {
		return Filter{}, errors.Join(errs...)
	}
	return f, nil
}

func (f Filter) Empty() bool { return len(f.allow) == 0 }

// Allows matches case-insensitively, ignoring a trailing dot.
func (f Filter) Allows(d string) bool {
	if f.Empty() {
		return true
	}
	n, err := CheckDomain(d)
	return err == nil && f.allow[n]
}

// Apply returns the subset of set allowed by the filter. The set is
// returned unchanged when the filter is empty.
func (f Filter) Apply(set model.CandidateSet) model.CandidateSet {
	if f.Empty() {
		return set
	}
	out := model.CandidateSet{}
	for d, ips := range set {
		if f.Allows(d) {
			out[d] = ips
		}
	}
	return out
}
