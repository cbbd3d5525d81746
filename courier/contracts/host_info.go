package contracts

// HostInfo is opaque annotation attached to logs and events describing
// the process that executed a step.
type HostInfo struct {
	Address        string `json:"address,omitempty"`
	MachineName    string `json:"machineName,omitempty"`
	ProcessName    string `json:"processName,omitempty"`
	ProcessID      int    `json:"processId,omitempty"`
	RuntimeVersion string `json:"runtimeVersion,omitempty"`
	CourierVersion string `json:"courierVersion,omitempty"`
	OSVersion      string `json:"osVersion,omitempty"`
}
