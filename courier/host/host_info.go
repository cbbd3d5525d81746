package host

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/krew-solutions/courier-go/courier/contracts"
)

// Version is stamped into host metadata on logs and events.
const Version = "1.0.0"

// LocalHostInfo collects metadata about the current process for the host
// serving the given address.
func LocalHostInfo(address string) contracts.HostInfo {
	machineName, _ := os.Hostname()

	return contracts.HostInfo{
		Address:        address,
		MachineName:    machineName,
		ProcessName:    filepath.Base(os.Args[0]),
		ProcessID:      os.Getpid(),
		RuntimeVersion: runtime.Version(),
		CourierVersion: Version,
		OSVersion:      runtime.GOOS,
	}
}
