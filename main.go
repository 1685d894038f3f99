package main

import (
	"os"

	"github.com/safing/portbase/info"
	"github.com/safing/portbase/log"
	"github.com/safing/portbase/run"

	// Include packages here.
	_ "github.com/safing/resolvd/netenv"
	_ "github.com/safing/resolvd/resolvconf"
	_ "github.com/safing/resolvd/resolver"
)

func main() {
	// set information
	info.Set("resolvd", "0.1.0", "AGPLv3")

	// Set default log level.
	log.SetLogLevel(log.WarningLevel)

	// start
	os.Exit(run.Run())
}
