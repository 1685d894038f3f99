package resolver

import (
	"errors"
	"time"

	"github.com/bluele/gcache"

	"github.com/safing/portbase/log"
)

const nameCacheSize = 1024

// ErrNotCached is returned when a domain is not in the name cache.
var ErrNotCached = errors.New("domain is not cached")

// NameRecord is a cached answer for a resolved domain. The daemon does
// not resolve names itself, populating and querying the cache is left to
// an embedding resolver. The daemon only owns the flush signal.
type NameRecord struct {
	Domain  string
	Answers []string
	Expires time.Time
}

var nameCache = gcache.New(nameCacheSize).ARC().Build()

// CacheNameRecord puts a name record into the name cache. Called by an
// embedding resolver, not by the daemon itself.
func CacheNameRecord(record *NameRecord) {
	if err := nameCache.SetWithExpire(record.Domain, record, time.Until(record.Expires)); err != nil {
		log.Warningf("resolver: failed to cache name record for %s: %s", record.Domain, err)
	}
}

// GetNameRecord returns the cached name record for the given domain, or
// ErrNotCached.
func GetNameRecord(domain string) (*NameRecord, error) {
	entry, err := nameCache.Get(domain)
	if err != nil {
		return nil, ErrNotCached
	}

	record, ok := entry.(*NameRecord)
	if !ok {
		return nil, ErrNotCached
	}
	return record, nil
}

// FlushCache removes all entries from the name cache. It is signaled by
// the resolv.conf reconciliation whenever the system configuration file
// changed, even if the resulting server list is identical - an edit of the
// file is treated as a network configuration event.
func FlushCache() {
	nameCache.Purge()
	log.Debug("resolver: flushed name cache")
}
