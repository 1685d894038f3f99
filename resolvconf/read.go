package resolvconf

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/safing/portbase/log"

	"github.com/safing/resolvd/resolver"
)

// ReadSystemConfig reads the system resolver configuration file, if it
// exists, changed since the last read and is not an alias of our own
// export file, and reconciles the standing collections with its content.
// Entries of other sources are never touched.
//
// Read failures are not propagated: they are logged, the system config
// entries are cleared and the next trigger retries.
func (rec *Reconciler) ReadSystemConfig() error {
	rec.lock.Lock()
	defer rec.lock.Unlock()

	return rec.readSystemConfig()
}

func (rec *Reconciler) readSystemConfig() error {
	if !rec.readEnabled {
		return nil
	}

	stat, err := os.Stat(rec.sourcePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		log.Warningf("resolvconf: failed to stat %s: %s", rec.sourcePath, err)
		rec.clearSystemEntries()
		return nil
	}

	// Have we already seen the file?
	if rec.haveLastMtime && stat.ModTime().Equal(rec.lastMtime) {
		return nil
	}

	// Is it an alias of our own export file? Reading our own output back
	// in would loop forever.
	if ownStat, err := os.Stat(rec.exportPath); err == nil && os.SameFile(stat, ownStat) {
		return nil
	}

	f, err := os.Open(rec.sourcePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		log.Warningf("resolvconf: failed to open %s: %s", rec.sourcePath, err)
		rec.clearSystemEntries()
		return nil
	}
	defer func() {
		_ = f.Close()
	}()

	// Re-stat the open file, it may have been replaced since the first
	// stat.
	stat, err = f.Stat()
	if err != nil {
		log.Warningf("resolvconf: failed to stat open %s: %s", rec.sourcePath, err)
		rec.clearSystemEntries()
		return nil
	}

	rec.servers.MarkSource(resolver.ServerSourceOperatingSystem)
	rec.domains.MarkSource(resolver.ServerSourceOperatingSystem)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rec.parseLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Warningf("resolvconf: failed to read %s: %s", rec.sourcePath, err)
		rec.clearSystemEntries()
		return nil
	}

	rec.lastMtime = stat.ModTime()
	rec.haveLastMtime = true

	// Flush out all servers and search domains that are still marked.
	// Those are the ones that no longer appear in the file.
	rec.servers.SweepMarked()
	rec.domains.SweepMarked()

	// Whenever the file changes, start using its first server. Network
	// managing implementations commonly prepend VPN servers to the
	// existing ones, without this reset we would keep querying the local
	// server and fail to resolve VPN domains.
	rec.servers.SetPrimaryToFirst()

	// Unconditionally flush the cache, even if the content was identical
	// to what we already had. Editing the file is typically part of a
	// network configuration change, and that alone warrants a flush.
	rec.flushCache()

	return nil
}

func (rec *Reconciler) parseLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' || line[0] == ';' {
		return
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "nameserver":
		arg := strings.Join(fields[1:], " ")
		srv, err := resolver.ParseServerAddress(arg)
		if err != nil {
			log.Warningf("resolvconf: failed to parse DNS server address %q, ignoring: %s", arg, err)
			return
		}
		srv.Source = resolver.ServerSourceOperatingSystem
		rec.servers.AddOrReaffirm(srv)

	case "domain", "search":
		// "domain" and "search" lines are treated as equivalent, both
		// contribute to the same search domain list.
		for _, token := range fields[1:] {
			domain, err := resolver.ParseSearchDomain(token)
			if err != nil {
				log.Warningf("resolvconf: failed to parse search domain %q, ignoring: %s", token, err)
				continue
			}
			rec.domains.AddOrReaffirm(&resolver.SearchDomain{
				Domain: domain,
				Source: resolver.ServerSourceOperatingSystem,
			})
		}
	}
}
