package netenv

import (
	"net"
	"sync"

	"github.com/safing/portbase/log"
)

var (
	nameservers                   = make([]Nameserver, 0)
	nameserversLock               sync.Mutex
	nameserversNetworkChangedFlag = GetNetworkChangedFlag()
)

// Nameserver describes a system assigned nameserver.
type Nameserver struct {
	IP     net.IP
	Search []string
}

// Nameservers returns the nameservers currently assigned by the network.
// The system resolver configuration file is not consulted here, as it is
// owned by the resolv.conf reconciliation.
func Nameservers() []Nameserver {
	nameserversLock.Lock()
	defer nameserversLock.Unlock()
	// Check if the network changed, if not, return cache.
	if !nameserversNetworkChangedFlag.IsSet() {
		return nameservers
	}
	nameserversNetworkChangedFlag.Refresh()

	nameservers = make([]Nameserver, 0)

	assigned, err := getAssignedNameservers()
	if err != nil {
		log.Warningf("netenv: could not get assigned nameservers: %s", err)
	} else {
		nameservers = addNameservers(nameservers, assigned)
	}

	return nameservers
}

func addNameservers(nameservers, newNameservers []Nameserver) []Nameserver {
	for _, newNameserver := range newNameservers {
		found := false
		for _, nameserver := range nameservers {
			if nameserver.IP.Equal(newNameserver.IP) {
				found = true
				break
			}
		}
		if !found {
			nameservers = append(nameservers, newNameserver)
		}
	}
	return nameservers
}
