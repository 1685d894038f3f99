//go:build !linux

package netenv

func getAssignedNameservers() ([]Nameserver, error) {
	// Only NetworkManager on Linux is queried for assigned nameservers
	// for now.
	return nil, nil
}
