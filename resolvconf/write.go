package resolvconf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/safing/portbase/log"
	"github.com/safing/portbase/utils/renameio"

	"github.com/safing/resolvd/resolver"
)

const exportFileMode = 0o644

const exportHeader = `# This file is managed by resolvd. Do not edit.
#
# Third party programs should not access this file directly, but only
# through the symlink at /etc/resolv.conf. To manage resolv.conf(5) in a
# different way, replace the symlink by a static file or a different
# symlink.

`

// Capacity warning comments. The limits mirror what the system resolver
// client supports, entries beyond them are omitted from the output.
const (
	warnTooManyServers = "# Too many DNS servers configured, the following entries may be ignored."
	warnTooManyDomains = " # Too many search domains configured, remaining ones ignored."
	warnDomainsTooLong = " # Total length of all search domains is too long, remaining ones ignored."
)

// WriteResolvConf regenerates the managed resolver configuration file.
// The system configuration file is read first to pick up external edits,
// then the deduplicated view of all known servers and search domains is
// serialized and atomically published at the export path. Readers see
// either the old or the new file, never a partially written one.
func (rec *Reconciler) WriteResolvConf() error {
	rec.lock.Lock()
	defer rec.lock.Unlock()

	if err := rec.readSystemConfig(); err != nil {
		return err
	}

	servers := rec.servers.Export()
	domains := rec.domains.Export()

	var buf bytes.Buffer
	if err := rec.writeContents(bufio.NewWriter(&buf), servers, domains); err != nil {
		return fmt.Errorf("failed to serialize resolver configuration: %w", err)
	}
	content := buf.String()

	// Nothing to do if the published file already holds this content.
	if content == rec.lastExport && rec.exportPath == rec.lastExportPath {
		if _, err := os.Stat(rec.exportPath); err == nil {
			return nil
		}
	}

	tmpFile, err := renameio.TempFile("", rec.exportPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", rec.exportPath, err)
	}

	if err := tmpFile.Chmod(exportFileMode); err != nil {
		rec.discardExport(tmpFile)
		return fmt.Errorf("failed to set mode of temporary file: %w", err)
	}

	if _, err := io.WriteString(tmpFile, content); err != nil {
		rec.discardExport(tmpFile)
		return fmt.Errorf("failed to write %s: %w", rec.exportPath, err)
	}

	if err := tmpFile.CloseAtomicallyReplace(); err != nil {
		rec.discardExport(tmpFile)
		return fmt.Errorf("failed to replace %s: %w", rec.exportPath, err)
	}

	rec.lastExport = content
	rec.lastExportPath = rec.exportPath
	log.Debugf("resolvconf: published %s with %d servers and %d search domains", rec.exportPath, len(servers), len(domains))

	return nil
}

// writeContents serializes the given servers and search domains in the
// resolv.conf format, enforcing the configured limits.
func (rec *Reconciler) writeContents(w *bufio.Writer, servers []*resolver.Server, domains []string) error {
	// bufio.Writer errors are sticky, checking Flush at the end suffices.
	_, _ = w.WriteString(exportHeader)

	if len(servers) == 0 {
		_, _ = w.WriteString("# No DNS servers known.\n")
	} else {
		for i, srv := range servers {
			if i >= rec.maxNameservers {
				_, _ = w.WriteString(warnTooManyServers + "\n")
				break
			}
			_, _ = fmt.Fprintf(w, "nameserver %s\n", srv.ServerString())
		}
	}

	if len(domains) > 0 {
		_, _ = w.WriteString("search")
		var count, length int
		var truncated bool
		for _, domain := range domains {
			switch {
			case count >= rec.maxSearchDomains:
				if !truncated {
					_, _ = w.WriteString(warnTooManyDomains)
					truncated = true
				}
			case length+len(domain) > rec.maxSearchLength:
				if !truncated {
					_, _ = w.WriteString(warnDomainsTooLong)
					truncated = true
				}
			case truncated:
				// the list is already cut off, skip the remainder
			default:
				_, _ = w.WriteString(" ")
				_, _ = w.WriteString(domain)
				count++
				length += len(domain)
			}
		}
		_, _ = w.WriteString("\n")
	}

	return w.Flush()
}

// discardExport removes the temporary file and, best effort, the export
// file itself, which may have been left behind in an inconsistent state.
// Cleanup failures are logged, the original failure is what gets reported
// to the caller.
func (rec *Reconciler) discardExport(tmpFile *renameio.PendingFile) {
	if err := os.Remove(rec.exportPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warningf("resolvconf: failed to remove %s: %s", rec.exportPath, err)
	}
	if err := tmpFile.Cleanup(); err != nil {
		log.Warningf("resolvconf: failed to clean up temporary file: %s", err)
	}
}
