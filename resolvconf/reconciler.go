package resolvconf

import (
	"sync"
	"time"

	"github.com/safing/portbase/log"

	"github.com/safing/resolvd/resolver"
)

// Reconciler reconciles the system resolver configuration file with the
// standing server and search domain collections and republishes the
// managed copy. All state of the read-merge-write cycle lives here, owned
// by the module for the lifetime of the process.
type Reconciler struct {
	lock sync.Mutex

	servers *resolver.ServerList
	domains *resolver.DomainList

	// settings, refreshed from the configuration between cycles
	readEnabled      bool
	sourcePath       string
	exportPath       string
	maxNameservers   int
	maxSearchDomains int
	maxSearchLength  int

	// flushCache is signaled after every accepted change of the source
	// file.
	flushCache func()

	// lastMtime is the modification time of the source file at the last
	// fully successful parse. It only ever advances.
	lastMtime     time.Time
	haveLastMtime bool

	// lastExport tracks what was last published where, so unchanged
	// content is not republished.
	lastExport     string
	lastExportPath string
}

// NewReconciler returns a reconciler operating on the given collections,
// with default paths and limits.
func NewReconciler(servers *resolver.ServerList, domains *resolver.DomainList) *Reconciler {
	return &Reconciler{
		servers:          servers,
		domains:          domains,
		readEnabled:      true,
		sourcePath:       defaultSystemConfigPath,
		exportPath:       defaultExportPath,
		maxNameservers:   defaultMaxNameservers,
		maxSearchDomains: defaultMaxSearchDomains,
		maxSearchLength:  defaultMaxSearchLength,
		flushCache:       resolver.FlushCache,
	}
}

// applyConfig refreshes the reconciler settings from the configuration.
// Only called by the export worker, between cycles.
func (rec *Reconciler) applyConfig() {
	rec.lock.Lock()
	defer rec.lock.Unlock()

	rec.readEnabled = readSystemConfig()
	rec.sourcePath = systemConfigPath()
	rec.exportPath = exportPath()
	rec.maxNameservers = int(maxNameservers())
	rec.maxSearchDomains = int(maxSearchDomains())
	rec.maxSearchLength = int(maxSearchLength())
}

// clearSystemEntries removes all entries contributed by the system
// configuration file from both collections. Called when reading the file
// failed, previously loaded entries must not stay resident with stale
// provenance.
func (rec *Reconciler) clearSystemEntries() {
	removed := rec.servers.RemoveSource(resolver.ServerSourceOperatingSystem)
	removed += rec.domains.RemoveSource(resolver.ServerSourceOperatingSystem)
	if removed > 0 {
		log.Debugf("resolvconf: cleared %d stale system config entries", removed)
	}
}
