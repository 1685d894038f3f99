package netenv

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // not used for security
	"io"
	"net"
	"time"

	"github.com/safing/portbase/log"
	"github.com/safing/portbase/utils"
)

var networkChangedBroadcastFlag = utils.NewBroadcastFlag()

// GetNetworkChangedFlag returns a flag to be notified about network
// changes.
func GetNetworkChangedFlag() *utils.Flag {
	return networkChangedBroadcastFlag.NewFlag()
}

func notifyOfNetworkChange() {
	networkChangedBroadcastFlag.NotifyAndReset()
	module.TriggerEvent(NetworkChangedEvent, nil)
}

func monitorNetworkChanges(ctx context.Context) error {
	var lastNetworkChecksum []byte

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Minute):
		}

		// Create a checksum of the current network configuration and
		// compare it to the last seen state.
		hasher := sha1.New() //nolint:gosec // not used for security
		interfaces, err := net.Interfaces()
		if err != nil {
			log.Warningf("netenv: failed to get interfaces: %s", err)
			continue
		}
		for _, iface := range interfaces {
			_, _ = io.WriteString(hasher, iface.Name)
			_, _ = io.WriteString(hasher, iface.Flags.String())
			addrs, err := iface.Addrs()
			if err != nil {
				log.Warningf("netenv: failed to get addrs from interface %s: %s", iface.Name, err)
				continue
			}
			for _, addr := range addrs {
				_, _ = io.WriteString(hasher, addr.String())
			}
		}
		newChecksum := hasher.Sum(nil)

		if bytes.Equal(lastNetworkChecksum, newChecksum) {
			continue
		}
		if len(lastNetworkChecksum) == 0 {
			// first run, just record the state
			lastNetworkChecksum = newChecksum
			continue
		}
		lastNetworkChecksum = newChecksum

		log.Info("netenv: network changed")
		notifyOfNetworkChange()
	}
}
