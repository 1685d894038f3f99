package resolver

import (
	"net"
)

// DNS Server Sources
const (
	ServerSourceConfigured      = "config"
	ServerSourceAssigned        = "dhcp"
	ServerSourceOperatingSystem = "system"
)

// Server holds information about a DNS server known to the resolver.
type Server struct {
	// IP is the IP address of the DNS server.
	IP net.IP

	// Source describes where the server entry came from. One of the
	// ServerSource* values.
	Source string

	// serverString is the derived textual representation of the server.
	// It is computed at construction time, as server entries are shared
	// between the export worker and API readers.
	serverString string

	// marked is only used within a single reconciliation cycle and must
	// not be observed outside of it.
	marked bool
}

// NewServer returns a new server entry with the given address and source.
func NewServer(ip net.IP, source string) *Server {
	return &Server{
		IP:           ip,
		Source:       source,
		serverString: ip.String(),
	}
}

// Key returns the key under which the server is indexed.
// Servers are unique by address.
func (s *Server) Key() string {
	return s.IP.String()
}

// ServerString returns the textual representation of the server address.
// Safe for concurrent use.
func (s *Server) ServerString() string {
	return s.serverString
}

func (s *Server) String() string {
	return s.ServerString()
}

// SearchDomain holds a single search domain entry.
type SearchDomain struct {
	// Domain is the search domain itself.
	Domain string

	// Source describes where the entry came from. One of the
	// ServerSource* values.
	Source string

	// marked is only used within a single reconciliation cycle and must
	// not be observed outside of it.
	marked bool
}
