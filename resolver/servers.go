package resolver

import (
	"sync"
)

// ServerList is an ordered collection of DNS servers, unique by address.
// Entries keep their insertion order, lookups go through an index. The
// mark/reaffirm/sweep primitives implement the reconciliation protocol
// used when re-reading the system resolver configuration: entries of one
// source are marked, entries seen again are reaffirmed, and entries that
// were not seen again are swept at the end of the cycle. Entries of other
// sources are never touched by these primitives.
type ServerList struct {
	sync.Mutex

	servers []*Server
	index   map[string]int
	primary *Server
}

// NewServerList returns an empty server list.
func NewServerList() *ServerList {
	return &ServerList{
		index: make(map[string]int),
	}
}

// Len returns the number of servers in the list.
func (sl *ServerList) Len() int {
	sl.Lock()
	defer sl.Unlock()

	return len(sl.servers)
}

// MarkSource marks all entries of the given source. Called at the start of
// a reconciliation cycle.
func (sl *ServerList) MarkSource(source string) {
	sl.Lock()
	defer sl.Unlock()

	for _, s := range sl.servers {
		if s.Source == source {
			s.marked = true
		}
	}
}

// AddOrReaffirm adds the given server to the end of the list. If a server
// with the same address already exists, the existing entry is kept and its
// mark is cleared instead. Reports whether the server was newly added.
func (sl *ServerList) AddOrReaffirm(s *Server) (added bool) {
	sl.Lock()
	defer sl.Unlock()

	if at, ok := sl.index[s.Key()]; ok {
		sl.servers[at].marked = false
		return false
	}

	sl.index[s.Key()] = len(sl.servers)
	sl.servers = append(sl.servers, s)
	return true
}

// SweepMarked removes all entries that are still marked and returns how
// many were removed. Called at the end of a successful reconciliation
// cycle.
func (sl *ServerList) SweepMarked() (removed int) {
	sl.Lock()
	defer sl.Unlock()

	return sl.removeMatching(func(s *Server) bool {
		return s.marked
	})
}

// RemoveSource removes all entries of the given source and returns how
// many were removed.
func (sl *ServerList) RemoveSource(source string) (removed int) {
	sl.Lock()
	defer sl.Unlock()

	return sl.removeMatching(func(s *Server) bool {
		return s.Source == source
	})
}

func (sl *ServerList) removeMatching(shouldRemove func(*Server) bool) (removed int) {
	kept := sl.servers[:0]
	for _, s := range sl.servers {
		if shouldRemove(s) {
			delete(sl.index, s.Key())
			removed++
			continue
		}
		kept = append(kept, s)
	}
	sl.servers = kept

	// rebuild index positions
	for at, s := range sl.servers {
		sl.index[s.Key()] = at
	}

	// drop primary selection if its entry was removed
	if sl.primary != nil {
		if _, ok := sl.index[sl.primary.Key()]; !ok {
			sl.primary = nil
		}
	}

	return removed
}

// SetPrimaryToFirst points the primary server selection to the first entry
// of the list, or to nothing if the list is empty.
func (sl *ServerList) SetPrimaryToFirst() {
	sl.Lock()
	defer sl.Unlock()

	if len(sl.servers) > 0 {
		sl.primary = sl.servers[0]
	} else {
		sl.primary = nil
	}
}

// Primary returns the currently selected primary server, or nil.
func (sl *ServerList) Primary() *Server {
	sl.Lock()
	defer sl.Unlock()

	return sl.primary
}

// Export returns a copy of the list in order.
func (sl *ServerList) Export() []*Server {
	sl.Lock()
	defer sl.Unlock()

	export := make([]*Server, len(sl.servers))
	copy(export, sl.servers)
	return export
}

var servers = NewServerList()

// Servers returns the standing server collection.
func Servers() *ServerList {
	return servers
}
