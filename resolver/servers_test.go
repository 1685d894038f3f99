package resolver

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, address, source string) *Server {
	t.Helper()

	ip := net.ParseIP(address)
	require.NotNil(t, ip, "test address must be valid")
	return NewServer(ip, source)
}

func exportStrings(sl *ServerList) []string {
	export := sl.Export()
	strs := make([]string, 0, len(export))
	for _, s := range export {
		strs = append(strs, s.ServerString())
	}
	return strs
}

func TestServerListDeduplicates(t *testing.T) {
	t.Parallel()

	sl := NewServerList()
	assert.True(t, sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem)))
	assert.False(t, sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem)))
	assert.True(t, sl.AddOrReaffirm(testServer(t, "5.6.7.8", ServerSourceAssigned)))

	assert.Equal(t, 2, sl.Len())
	assert.Equal(t, []string{"1.2.3.4", "5.6.7.8"}, exportStrings(sl))
}

func TestServerListMarkAndSweep(t *testing.T) {
	t.Parallel()

	sl := NewServerList()
	sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem)) // A
	sl.AddOrReaffirm(testServer(t, "5.6.7.8", ServerSourceAssigned))       // B

	// A reaffirmed: collection must be unchanged.
	sl.MarkSource(ServerSourceOperatingSystem)
	sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem))
	assert.Equal(t, 0, sl.SweepMarked())
	assert.Equal(t, []string{"1.2.3.4", "5.6.7.8"}, exportStrings(sl))

	// C replaces A: A swept, B untouched.
	sl.MarkSource(ServerSourceOperatingSystem)
	sl.AddOrReaffirm(testServer(t, "9.9.9.9", ServerSourceOperatingSystem))
	assert.Equal(t, 1, sl.SweepMarked())
	assert.Equal(t, []string{"5.6.7.8", "9.9.9.9"}, exportStrings(sl))

	// The entry of another source must never be swept.
	for _, s := range sl.Export() {
		if s.ServerString() == "5.6.7.8" {
			assert.Equal(t, ServerSourceAssigned, s.Source)
		}
	}
}

func TestServerListRemoveSource(t *testing.T) {
	t.Parallel()

	sl := NewServerList()
	sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem))
	sl.AddOrReaffirm(testServer(t, "5.6.7.8", ServerSourceConfigured))
	sl.AddOrReaffirm(testServer(t, "9.9.9.9", ServerSourceOperatingSystem))

	assert.Equal(t, 2, sl.RemoveSource(ServerSourceOperatingSystem))
	assert.Equal(t, []string{"5.6.7.8"}, exportStrings(sl))

	// Index must be intact after removal.
	assert.False(t, sl.AddOrReaffirm(testServer(t, "5.6.7.8", ServerSourceConfigured)))
	assert.True(t, sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem)))
}

func TestServerListPrimary(t *testing.T) {
	t.Parallel()

	sl := NewServerList()
	assert.Nil(t, sl.Primary())

	sl.SetPrimaryToFirst()
	assert.Nil(t, sl.Primary())

	sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem))
	sl.AddOrReaffirm(testServer(t, "5.6.7.8", ServerSourceOperatingSystem))
	sl.SetPrimaryToFirst()
	require.NotNil(t, sl.Primary())
	assert.Equal(t, "1.2.3.4", sl.Primary().ServerString())

	// Removing the primary entry drops the selection.
	sl.MarkSource(ServerSourceOperatingSystem)
	sl.AddOrReaffirm(testServer(t, "5.6.7.8", ServerSourceOperatingSystem))
	sl.SweepMarked()
	assert.Nil(t, sl.Primary())

	sl.SetPrimaryToFirst()
	require.NotNil(t, sl.Primary())
	assert.Equal(t, "5.6.7.8", sl.Primary().ServerString())
}

func TestServerStringConcurrentReads(t *testing.T) {
	t.Parallel()

	// Exports share the server entries, the API handler and the export
	// worker read the same *Server concurrently.
	sl := NewServerList()
	sl.AddOrReaffirm(testServer(t, "1.2.3.4", ServerSourceOperatingSystem))
	sl.AddOrReaffirm(testServer(t, "fe80::1", ServerSourceAssigned))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for _, s := range sl.Export() {
					assert.NotEmpty(t, s.ServerString())
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"1.2.3.4", "fe80::1"}, exportStrings(sl))
}

func TestDomainListMarkAndSweep(t *testing.T) {
	t.Parallel()

	dl := NewDomainList()
	assert.True(t, dl.AddOrReaffirm(&SearchDomain{Domain: "example.com", Source: ServerSourceOperatingSystem}))
	assert.False(t, dl.AddOrReaffirm(&SearchDomain{Domain: "example.com", Source: ServerSourceOperatingSystem}))
	assert.True(t, dl.AddOrReaffirm(&SearchDomain{Domain: "corp.local", Source: ServerSourceAssigned}))
	assert.Equal(t, []string{"example.com", "corp.local"}, dl.Export())

	dl.MarkSource(ServerSourceOperatingSystem)
	dl.AddOrReaffirm(&SearchDomain{Domain: "example.org", Source: ServerSourceOperatingSystem})
	assert.Equal(t, 1, dl.SweepMarked())
	assert.Equal(t, []string{"corp.local", "example.org"}, dl.Export())

	assert.Equal(t, 1, dl.RemoveSource(ServerSourceAssigned))
	assert.Equal(t, []string{"example.org"}, dl.Export())
}
