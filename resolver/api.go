package resolver

import (
	"github.com/safing/portbase/api"
)

func registerAPI() error {
	if err := api.RegisterEndpoint(api.Endpoint{
		Path:        "dns/servers",
		Read:        api.PermitAnyone,
		StructFunc:  exportDNSServers,
		Name:        "List DNS Servers",
		Description: "List the currently known DNS servers and search domains in order.",
	}); err != nil {
		return err
	}

	if err := api.RegisterEndpoint(api.Endpoint{
		Path:  "dns/cache/clear",
		Write: api.PermitUser,
		ActionFunc: func(*api.Request) (string, error) {
			FlushCache()
			return "name cache flushed", nil
		},
		Name:        "Clear cached DNS records",
		Description: "Removes all entries from the name cache.",
	}); err != nil {
		return err
	}

	return nil
}

type serverExport struct {
	Server  string
	Source  string
	Primary bool
}

type dnsExport struct {
	Servers       []serverExport
	SearchDomains []string
}

func exportDNSServers(*api.Request) (interface{}, error) {
	primary := servers.Primary()

	export := dnsExport{
		SearchDomains: searchDomains.Export(),
	}
	for _, s := range servers.Export() {
		export.Servers = append(export.Servers, serverExport{
			Server:  s.ServerString(),
			Source:  s.Source,
			Primary: s == primary,
		})
	}

	return export, nil
}
