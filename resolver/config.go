package resolver

import (
	"github.com/safing/portbase/config"
)

// Configuration Keys
var (
	CfgOptionNameServersKey   = "dns/nameservers"
	configuredNameServers     config.StringArrayOption
	cfgOptionNameServersOrder = 0

	CfgOptionUseAssignedNameserversKey   = "dns/useAssignedNameservers"
	useAssignedNameservers               config.BoolOption
	cfgOptionUseAssignedNameserversOrder = 1
)

func prepConfig() error {
	err := config.Register(&config.Option{
		Name:        "DNS Servers",
		Key:         CfgOptionNameServersKey,
		Description: "Statically configured DNS servers, used in addition to servers assigned by the network or found in the system configuration.",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionNameServersOrder,
		},
		OptType:        config.OptTypeStringArray,
		ExpertiseLevel: config.ExpertiseLevelExpert,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   []string{},
	})
	if err != nil {
		return err
	}
	configuredNameServers = config.Concurrent.GetAsStringArray(CfgOptionNameServersKey, []string{})

	err = config.Register(&config.Option{
		Name:        "Use assigned Nameservers",
		Key:         CfgOptionUseAssignedNameserversKey,
		Description: "Use DNS servers that were assigned by the network (dhcp).",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionUseAssignedNameserversOrder,
		},
		OptType:        config.OptTypeBool,
		ExpertiseLevel: config.ExpertiseLevelExpert,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   true,
	})
	if err != nil {
		return err
	}
	useAssignedNameservers = config.Concurrent.GetAsBool(CfgOptionUseAssignedNameserversKey, true)

	return nil
}
