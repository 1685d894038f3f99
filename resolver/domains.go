package resolver

import (
	"sync"
)

// DomainList is an ordered collection of search domains, deduplicated by
// domain name. It supports the same mark/reaffirm/sweep reconciliation
// primitives as ServerList.
type DomainList struct {
	sync.Mutex

	domains []*SearchDomain
	index   map[string]int
}

// NewDomainList returns an empty search domain list.
func NewDomainList() *DomainList {
	return &DomainList{
		index: make(map[string]int),
	}
}

// Len returns the number of search domains in the list.
func (dl *DomainList) Len() int {
	dl.Lock()
	defer dl.Unlock()

	return len(dl.domains)
}

// MarkSource marks all entries of the given source.
func (dl *DomainList) MarkSource(source string) {
	dl.Lock()
	defer dl.Unlock()

	for _, d := range dl.domains {
		if d.Source == source {
			d.marked = true
		}
	}
}

// AddOrReaffirm adds the given search domain to the end of the list. If
// the domain already exists, the existing entry is kept and its mark is
// cleared instead. Reports whether the domain was newly added.
func (dl *DomainList) AddOrReaffirm(d *SearchDomain) (added bool) {
	dl.Lock()
	defer dl.Unlock()

	if at, ok := dl.index[d.Domain]; ok {
		dl.domains[at].marked = false
		return false
	}

	dl.index[d.Domain] = len(dl.domains)
	dl.domains = append(dl.domains, d)
	return true
}

// SweepMarked removes all entries that are still marked and returns how
// many were removed.
func (dl *DomainList) SweepMarked() (removed int) {
	dl.Lock()
	defer dl.Unlock()

	return dl.removeMatching(func(d *SearchDomain) bool {
		return d.marked
	})
}

// RemoveSource removes all entries of the given source and returns how
// many were removed.
func (dl *DomainList) RemoveSource(source string) (removed int) {
	dl.Lock()
	defer dl.Unlock()

	return dl.removeMatching(func(d *SearchDomain) bool {
		return d.Source == source
	})
}

func (dl *DomainList) removeMatching(shouldRemove func(*SearchDomain) bool) (removed int) {
	kept := dl.domains[:0]
	for _, d := range dl.domains {
		if shouldRemove(d) {
			delete(dl.index, d.Domain)
			removed++
			continue
		}
		kept = append(kept, d)
	}
	dl.domains = kept

	for at, d := range dl.domains {
		dl.index[d.Domain] = at
	}

	return removed
}

// Export returns a copy of the search domain names in order.
func (dl *DomainList) Export() []string {
	dl.Lock()
	defer dl.Unlock()

	export := make([]string, 0, len(dl.domains))
	for _, d := range dl.domains {
		export = append(export, d.Domain)
	}
	return export
}

var searchDomains = NewDomainList()

// SearchDomains returns the standing search domain collection.
func SearchDomains() *DomainList {
	return searchDomains
}
