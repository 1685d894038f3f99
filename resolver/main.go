package resolver

import (
	"context"
	"strings"

	"github.com/safing/portbase/log"
	"github.com/safing/portbase/modules"

	"github.com/safing/resolvd/netenv"
)

var module *modules.Module

func init() {
	module = modules.Register("resolver", prep, start, nil, "netenv")
}

func prep() error {
	if err := registerAPI(); err != nil {
		return err
	}

	return prepConfig()
}

func start() error {
	// load configured and assigned servers
	loadResolvers()

	// reload after network change
	err := module.RegisterEventHook(
		"netenv",
		netenv.NetworkChangedEvent,
		"update nameservers",
		func(_ context.Context, _ interface{}) error {
			loadResolvers()
			log.Debug("resolver: reloaded nameservers due to network change")
			return nil
		},
	)
	if err != nil {
		return err
	}

	// reload after config change
	prevNameservers := strings.Join(configuredNameServers(), " ")
	err = module.RegisterEventHook(
		"config",
		"config change",
		"update nameservers",
		func(_ context.Context, _ interface{}) error {
			newNameservers := strings.Join(configuredNameServers(), " ")
			if newNameservers != prevNameservers {
				prevNameservers = newNameservers

				loadResolvers()
				log.Debug("resolver: reloaded nameservers due to config change")
			}
			return nil
		},
	)
	if err != nil {
		return err
	}

	return nil
}

// loadResolvers rebuilds the configured and assigned entries of the
// standing collections. Entries found in the system configuration file are
// owned by the resolv.conf reconciliation and are left alone here.
func loadResolvers() {
	servers.RemoveSource(ServerSourceConfigured)
	for _, entry := range configuredNameServers() {
		srv, err := ParseServerAddress(entry)
		if err != nil {
			log.Warningf("resolver: failed to parse configured DNS server %q, ignoring: %s", entry, err)
			continue
		}
		srv.Source = ServerSourceConfigured
		servers.AddOrReaffirm(srv)
	}

	servers.RemoveSource(ServerSourceAssigned)
	searchDomains.RemoveSource(ServerSourceAssigned)
	if useAssignedNameservers() {
		for _, ns := range netenv.Nameservers() {
			srv := NewServer(ns.IP, ServerSourceAssigned)
			servers.AddOrReaffirm(srv)

			for _, domain := range ns.Search {
				domain, err := ParseSearchDomain(domain)
				if err != nil {
					log.Warningf("resolver: failed to parse assigned search domain, ignoring: %s", err)
					continue
				}
				searchDomains.AddOrReaffirm(&SearchDomain{
					Domain: domain,
					Source: ServerSourceAssigned,
				})
			}
		}
	}

	if servers.Primary() == nil {
		servers.SetPrimaryToFirst()
	}
}
