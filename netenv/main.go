package netenv

import (
	"github.com/safing/portbase/modules"
)

// Event Names
const (
	NetworkChangedEvent = "network changed"
)

var module *modules.Module

func init() {
	module = modules.Register("netenv", nil, start, nil)
	module.RegisterEvent(NetworkChangedEvent, true)
}

func start() error {
	module.StartServiceWorker(
		"monitor network changes",
		0,
		monitorNetworkChanges,
	)

	return nil
}
