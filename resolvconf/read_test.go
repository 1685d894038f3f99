package resolvconf

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/resolvd/resolver"
)

type testEnv struct {
	rec     *Reconciler
	flushes int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		rec: NewReconciler(resolver.NewServerList(), resolver.NewDomainList()),
	}
	env.rec.sourcePath = filepath.Join(dir, "resolv.conf")
	env.rec.exportPath = filepath.Join(dir, "managed", "resolv.conf")
	env.rec.flushCache = func() {
		env.flushes++
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(env.rec.exportPath), 0o755))
	return env
}

func (env *testEnv) writeSource(t *testing.T, content string, mtime time.Time) {
	t.Helper()

	require.NoError(t, os.WriteFile(env.rec.sourcePath, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(env.rec.sourcePath, mtime, mtime))
}

func (env *testEnv) serverStrings() []string {
	export := env.rec.servers.Export()
	strs := make([]string, 0, len(export))
	for _, s := range export {
		strs = append(strs, s.ServerString())
	}
	return strs
}

func (env *testEnv) addOtherServer(t *testing.T, address string) {
	t.Helper()

	ip := net.ParseIP(address)
	require.NotNil(t, ip)
	env.rec.servers.AddOrReaffirm(resolver.NewServer(ip, resolver.ServerSourceAssigned))
}

func TestReadSystemConfig(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSource(t, `# a comment
; another comment
nameserver 1.2.3.4
nameserver not-an-address
nameserver 5.6.7.8
search example.com example.org
domain corp.example.net
options edns0 trust-ad
`, time.Now().Add(-time.Minute))

	require.NoError(t, env.rec.ReadSystemConfig())

	assert.Equal(t, []string{"1.2.3.4", "5.6.7.8"}, env.serverStrings())
	assert.Equal(t, []string{"example.com", "example.org", "corp.example.net"}, env.rec.domains.Export())
	assert.Equal(t, 1, env.flushes)

	require.NotNil(t, env.rec.servers.Primary())
	assert.Equal(t, "1.2.3.4", env.rec.servers.Primary().ServerString())
}

func TestReadIdempotence(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	mtime := time.Now().Add(-time.Hour)
	env.writeSource(t, "nameserver 1.2.3.4\n", mtime)

	require.NoError(t, env.rec.ReadSystemConfig())
	require.NoError(t, env.rec.ReadSystemConfig())

	// The second read must be short-circuited by the timestamp check.
	assert.Equal(t, 1, env.flushes)
	assert.Equal(t, []string{"1.2.3.4"}, env.serverStrings())

	// A new timestamp flushes again, even with identical content.
	env.writeSource(t, "nameserver 1.2.3.4\n", mtime.Add(time.Minute))
	require.NoError(t, env.rec.ReadSystemConfig())
	assert.Equal(t, 2, env.flushes)
	assert.Equal(t, []string{"1.2.3.4"}, env.serverStrings())
}

func TestReadMissingSource(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	require.NoError(t, env.rec.ReadSystemConfig())

	assert.Equal(t, 0, env.flushes)
	assert.Equal(t, 0, env.rec.servers.Len())
	assert.Equal(t, 0, env.rec.domains.Len())
}

func TestReadDisabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSource(t, "nameserver 1.2.3.4\n", time.Now().Add(-time.Minute))
	env.rec.readEnabled = false

	require.NoError(t, env.rec.ReadSystemConfig())
	assert.Equal(t, 0, env.flushes)
	assert.Equal(t, 0, env.rec.servers.Len())
}

func TestReadSelfLoopAlias(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSource(t, "nameserver 1.2.3.4\n", time.Now().Add(-time.Minute))

	// Make the source an alias of our own export file.
	require.NoError(t, os.Link(env.rec.sourcePath, env.rec.exportPath))

	require.NoError(t, env.rec.ReadSystemConfig())
	assert.Equal(t, 0, env.flushes)
	assert.Equal(t, 0, env.rec.servers.Len())
}

func TestReadSoftFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSource(t, "nameserver 1.2.3.4\n", time.Now().Add(-time.Hour))
	env.addOtherServer(t, "9.9.9.9")

	require.NoError(t, env.rec.ReadSystemConfig())
	require.Equal(t, []string{"1.2.3.4", "9.9.9.9"}, env.serverStrings())
	lastMtime := env.rec.lastMtime

	// Reading a directory fails after open, a fatal read error. All
	// system config entries must be cleared, entries of other sources and
	// the stored timestamp must be untouched.
	env.rec.sourcePath = t.TempDir()
	require.NoError(t, env.rec.ReadSystemConfig())

	assert.Equal(t, []string{"9.9.9.9"}, env.serverStrings())
	assert.Equal(t, 1, env.flushes)
	assert.True(t, env.rec.lastMtime.Equal(lastMtime))
}

func TestMergeKeepsOtherSources(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	mtime := time.Now().Add(-time.Hour)
	env.writeSource(t, "nameserver 1.1.1.1\n", mtime)
	require.NoError(t, env.rec.ReadSystemConfig())
	env.addOtherServer(t, "2.2.2.2")

	// Re-reading the same servers must not change anything.
	env.writeSource(t, "nameserver 1.1.1.1\n", mtime.Add(time.Minute))
	require.NoError(t, env.rec.ReadSystemConfig())
	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, env.serverStrings())

	// Replacing the system server sweeps the old one and leaves the
	// entry of the other source untouched.
	env.writeSource(t, "nameserver 3.3.3.3\n", mtime.Add(2*time.Minute))
	require.NoError(t, env.rec.ReadSystemConfig())
	assert.Equal(t, []string{"2.2.2.2", "3.3.3.3"}, env.serverStrings())

	for _, s := range env.rec.servers.Export() {
		switch s.ServerString() {
		case "2.2.2.2":
			assert.Equal(t, resolver.ServerSourceAssigned, s.Source)
		case "3.3.3.3":
			assert.Equal(t, resolver.ServerSourceOperatingSystem, s.Source)
		}
	}
}

func TestDomainAndSearchAreEquivalent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSource(t, "domain foo.example\nsearch bar.example baz.example\n", time.Now().Add(-time.Minute))

	require.NoError(t, env.rec.ReadSystemConfig())
	assert.Equal(t, []string{"foo.example", "bar.example", "baz.example"}, env.rec.domains.Export())
}
