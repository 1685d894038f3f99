package resolvconf

import (
	"sync"

	"github.com/tevino/abool"

	"github.com/safing/portbase/notifications"
)

var (
	exportFailedNotification     *notifications.Notification
	exportFailedNotificationSet  = abool.New()
	exportFailedNotificationLock sync.Mutex
)

func notifyExportFailed(err error) {
	exportFailedNotificationLock.Lock()
	defer exportFailedNotificationLock.Unlock()
	exportFailedNotificationSet.Set()

	// Check if already set.
	if exportFailedNotification != nil {
		return
	}

	// Create new notification.
	n := &notifications.Notification{
		EventID:      "resolvconf:export-failed",
		Type:         notifications.Error,
		Title:        "Failed to Publish Resolver Configuration",
		Message:      "resolvd could not write its managed resolv.conf copy. Programs relying on it may keep using stale DNS servers. Error: " + err.Error(),
		ShowOnSystem: true,
	}
	notifications.Notify(n)

	exportFailedNotification = n
	n.AttachToModule(module)
}

func resetExportFailedNotification() {
	if exportFailedNotificationSet.IsNotSet() {
		return
	}

	exportFailedNotificationLock.Lock()
	defer exportFailedNotificationLock.Unlock()
	exportFailedNotificationSet.UnSet()

	if exportFailedNotification != nil {
		exportFailedNotification.Delete()
		exportFailedNotification = nil
	}
}
