package ipc

// Commands understood by the daemon.
const (
	CommandStatus = "status"
	CommandSwitch = "switch"
	CommandReload = "reload"
	CommandPress  = "press"
	CommandStop   = "stop"
)

type Request struct {
	Command string `json:"command"`
	Pin     *int   `json:"pin,omitempty"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Profile string `json:"profile,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
