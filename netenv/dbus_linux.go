package netenv

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/godbus/dbus/v5"
)

var (
	dbusConn     *dbus.Conn
	dbusConnLock sync.Mutex
)

// getAssignedNameservers queries NetworkManager for the nameservers of all
// active connections, starting with the primary connection.
// cmdline tool for exploring:
// gdbus introspect --system --dest org.freedesktop.NetworkManager --object-path /org/freedesktop/NetworkManager
func getAssignedNameservers() ([]Nameserver, error) {
	dbusConnLock.Lock()
	defer dbusConnLock.Unlock()

	var err error
	if dbusConn == nil {
		dbusConn, err = dbus.SystemBus()
		if err != nil {
			return nil, err
		}
	}

	nmPath := dbus.ObjectPath("/org/freedesktop/NetworkManager")

	primaryConnection, err := getObjectPathProperty(dbusConn, nmPath, "org.freedesktop.NetworkManager.PrimaryConnection")
	if err != nil {
		return nil, err
	}

	activeConnectionsVariant, err := getNetworkManagerProperty(dbusConn, nmPath, "org.freedesktop.NetworkManager.ActiveConnections")
	if err != nil {
		return nil, err
	}
	activeConnections, ok := activeConnectionsVariant.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.New("dbus: could not assert type of org.freedesktop.NetworkManager.ActiveConnections")
	}

	sortedConnections := []dbus.ObjectPath{primaryConnection}
	for _, activeConnection := range activeConnections {
		if !objectPathInSlice(activeConnection, sortedConnections) {
			sortedConnections = append(sortedConnections, activeConnection)
		}
	}

	var nameservers []Nameserver
	for _, activeConnection := range sortedConnections {
		connNameservers, err := getConnectionNameservers(dbusConn, activeConnection)
		if err != nil {
			return nil, err
		}
		nameservers = append(nameservers, connNameservers...)
	}

	return nameservers, nil
}

func getConnectionNameservers(conn *dbus.Conn, activeConnection dbus.ObjectPath) ([]Nameserver, error) {
	var nameservers []Nameserver

	// IPv4
	ip4Config, err := getObjectPathProperty(conn, activeConnection, "org.freedesktop.NetworkManager.Connection.Active.Ip4Config")
	if err != nil {
		return nil, err
	}

	nameserverIP4sVariant, err := getNetworkManagerProperty(conn, ip4Config, "org.freedesktop.NetworkManager.IP4Config.Nameservers")
	if err != nil {
		return nil, err
	}
	nameserverIP4s, ok := nameserverIP4sVariant.Value().([]uint32)
	if !ok {
		return nil, fmt.Errorf("dbus: could not assert type of %s:org.freedesktop.NetworkManager.IP4Config.Nameservers", ip4Config)
	}

	ip4Search, err := getConfigSearchDomains(conn, ip4Config, "IP4Config")
	if err != nil {
		return nil, err
	}

	for _, ip := range nameserverIP4s {
		// nameservers are reported in network byte order
		a := uint8(ip / 16777216)
		b := uint8((ip % 16777216) / 65536)
		c := uint8((ip % 65536) / 256)
		d := uint8(ip % 256)
		nameservers = append(nameservers, Nameserver{
			IP:     net.IPv4(d, c, b, a),
			Search: ip4Search,
		})
	}

	// IPv6
	ip6Config, err := getObjectPathProperty(conn, activeConnection, "org.freedesktop.NetworkManager.Connection.Active.Ip6Config")
	if err != nil {
		return nil, err
	}

	nameserverIP6sVariant, err := getNetworkManagerProperty(conn, ip6Config, "org.freedesktop.NetworkManager.IP6Config.Nameservers")
	if err != nil {
		return nil, err
	}
	nameserverIP6s, ok := nameserverIP6sVariant.Value().([][]byte)
	if !ok {
		return nil, fmt.Errorf("dbus: could not assert type of %s:org.freedesktop.NetworkManager.IP6Config.Nameservers", ip6Config)
	}

	ip6Search, err := getConfigSearchDomains(conn, ip6Config, "IP6Config")
	if err != nil {
		return nil, err
	}

	for _, ip := range nameserverIP6s {
		if len(ip) != 16 {
			return nil, fmt.Errorf("dbus: query returned IPv6 address (%s) with invalid length", ip)
		}
		nameservers = append(nameservers, Nameserver{
			IP:     net.IP(ip),
			Search: ip6Search,
		})
	}

	return nameservers, nil
}

func getConfigSearchDomains(conn *dbus.Conn, config dbus.ObjectPath, configType string) ([]string, error) {
	domainsVariant, err := getNetworkManagerProperty(conn, config, fmt.Sprintf("org.freedesktop.NetworkManager.%s.Domains", configType))
	if err != nil {
		return nil, err
	}
	domains, ok := domainsVariant.Value().([]string)
	if !ok {
		return nil, fmt.Errorf("dbus: could not assert type of %s:org.freedesktop.NetworkManager.%s.Domains", config, configType)
	}

	searchesVariant, err := getNetworkManagerProperty(conn, config, fmt.Sprintf("org.freedesktop.NetworkManager.%s.Searches", configType))
	if err != nil {
		return nil, err
	}
	searches, ok := searchesVariant.Value().([]string)
	if !ok {
		return nil, fmt.Errorf("dbus: could not assert type of %s:org.freedesktop.NetworkManager.%s.Searches", config, configType)
	}

	return append(domains, searches...), nil
}

func getNetworkManagerProperty(conn *dbus.Conn, objectPath dbus.ObjectPath, property string) (dbus.Variant, error) {
	object := conn.Object("org.freedesktop.NetworkManager", objectPath)
	return object.GetProperty(property)
}

func getObjectPathProperty(conn *dbus.Conn, objectPath dbus.ObjectPath, property string) (dbus.ObjectPath, error) {
	variant, err := getNetworkManagerProperty(conn, objectPath, property)
	if err != nil {
		return "", err
	}
	path, ok := variant.Value().(dbus.ObjectPath)
	if !ok {
		return "", fmt.Errorf("dbus: could not assert type of %s:%s", objectPath, property)
	}
	return path, nil
}

func objectPathInSlice(needle dbus.ObjectPath, haystack []dbus.ObjectPath) bool {
	for _, curPath := range haystack {
		if curPath == needle {
			return true
		}
	}
	return false
}
