package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// MachineID retrieves the unique ID identifying the machine. A random ID
// is generated if the machine ID is not available.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil || id == "" {
		glog.Warningf("machine id not available: %v", err)
		return uuid.NewString()
	}
	return id
}
