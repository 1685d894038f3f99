package resolvconf

import (
	"github.com/safing/portbase/config"
)

// Defaults. The limits mirror the MAXNS and MAXDNSRCH limits of the
// system resolver client, they encode an external contract and are
// configurable for platforms with different limits.
const (
	defaultSystemConfigPath = "/etc/resolv.conf"
	defaultExportPath       = "/run/resolvd/resolv.conf"

	defaultMaxNameservers   = 3
	defaultMaxSearchDomains = 6
	defaultMaxSearchLength  = 256
)

// Configuration Keys
var (
	CfgOptionReadSystemConfigKey   = "resolvconf/readSystemConfig"
	readSystemConfig               config.BoolOption
	cfgOptionReadSystemConfigOrder = 0

	CfgOptionSystemConfigPathKey   = "resolvconf/systemConfigPath"
	systemConfigPath               config.StringOption
	cfgOptionSystemConfigPathOrder = 1

	CfgOptionExportPathKey   = "resolvconf/exportPath"
	exportPath               config.StringOption
	cfgOptionExportPathOrder = 2

	CfgOptionMaxNameserversKey   = "resolvconf/maxNameservers"
	maxNameservers               config.IntOption
	cfgOptionMaxNameserversOrder = 16

	CfgOptionMaxSearchDomainsKey   = "resolvconf/maxSearchDomains"
	maxSearchDomains               config.IntOption
	cfgOptionMaxSearchDomainsOrder = 17

	CfgOptionMaxSearchLengthKey   = "resolvconf/maxSearchLength"
	maxSearchLength               config.IntOption
	cfgOptionMaxSearchLengthOrder = 18
)

func prepConfig() error {
	err := config.Register(&config.Option{
		Name:        "Read System Resolver Configuration",
		Key:         CfgOptionReadSystemConfigKey,
		Description: "Read DNS servers and search domains from the system resolver configuration file.",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionReadSystemConfigOrder,
		},
		OptType:        config.OptTypeBool,
		ExpertiseLevel: config.ExpertiseLevelExpert,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   true,
	})
	if err != nil {
		return err
	}
	readSystemConfig = config.Concurrent.GetAsBool(CfgOptionReadSystemConfigKey, true)

	err = config.Register(&config.Option{
		Name:        "System Resolver Configuration Path",
		Key:         CfgOptionSystemConfigPathKey,
		Description: "Path of the system resolver configuration file to read.",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionSystemConfigPathOrder,
		},
		OptType:        config.OptTypeString,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   defaultSystemConfigPath,
	})
	if err != nil {
		return err
	}
	systemConfigPath = config.Concurrent.GetAsString(CfgOptionSystemConfigPathKey, defaultSystemConfigPath)

	err = config.Register(&config.Option{
		Name:        "Managed Resolver Configuration Path",
		Key:         CfgOptionExportPathKey,
		Description: "Path where the managed copy of the resolver configuration is published for other programs to consume.",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionExportPathOrder,
		},
		OptType:        config.OptTypeString,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   defaultExportPath,
	})
	if err != nil {
		return err
	}
	exportPath = config.Concurrent.GetAsString(CfgOptionExportPathKey, defaultExportPath)

	err = config.Register(&config.Option{
		Name:        "Maximum DNS Servers",
		Key:         CfgOptionMaxNameserversKey,
		Description: "Maximum number of DNS servers written to the managed resolver configuration, mirroring the limit of the system resolver client.",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionMaxNameserversOrder,
		},
		OptType:        config.OptTypeInt,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   defaultMaxNameservers,
	})
	if err != nil {
		return err
	}
	maxNameservers = config.Concurrent.GetAsInt(CfgOptionMaxNameserversKey, defaultMaxNameservers)

	err = config.Register(&config.Option{
		Name:        "Maximum Search Domains",
		Key:         CfgOptionMaxSearchDomainsKey,
		Description: "Maximum number of search domains written to the managed resolver configuration, mirroring the limit of the system resolver client.",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionMaxSearchDomainsOrder,
		},
		OptType:        config.OptTypeInt,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   defaultMaxSearchDomains,
	})
	if err != nil {
		return err
	}
	maxSearchDomains = config.Concurrent.GetAsInt(CfgOptionMaxSearchDomainsKey, defaultMaxSearchDomains)

	err = config.Register(&config.Option{
		Name:        "Maximum Search Domain Length",
		Key:         CfgOptionMaxSearchLengthKey,
		Description: "Maximum cumulative character length of all search domains written to the managed resolver configuration.",
		Annotations: config.Annotations{
			config.DisplayOrderAnnotation: cfgOptionMaxSearchLengthOrder,
		},
		OptType:        config.OptTypeInt,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   defaultMaxSearchLength,
	})
	if err != nil {
		return err
	}
	maxSearchLength = config.Concurrent.GetAsInt(CfgOptionMaxSearchLengthKey, defaultMaxSearchLength)

	return nil
}
