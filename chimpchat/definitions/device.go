package definitions

type ConnectionType string

const (
	USB    ConnectionType = "usb"
	WiFi   ConnectionType = "wifi"
	Remote ConnectionType = "remote"
)

type DeviceInfo struct {
	DeviceID       string         `json:"device_id"`
	Status         string         `json:"status"`
	ConnectionType ConnectionType `json:"connection_type"`
	Model          string         `json:"model,omitempty"`
	Product        string         `json:"product,omitempty"`
}

// TouchPressType selects which half of a touch or key event is sent.
type TouchPressType int

const (
	Down TouchPressType = iota
	Up
	DownAndUp
	Move
)

func (t TouchPressType) String() string {
	switch t {
	case Down:
		return "down"
	case Up:
		return "up"
	case DownAndUp:
		return "downAndUp"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// PhysicalButton is a hardware key with a fixed monkey key name.
type PhysicalButton string

const (
	Home       PhysicalButton = "home"
	Search     PhysicalButton = "search"
	Menu       PhysicalButton = "menu"
	Back       PhysicalButton = "back"
	DPadUp     PhysicalButton = "DPAD_UP"
	DPadDown   PhysicalButton = "DPAD_DOWN"
	DPadLeft   PhysicalButton = "DPAD_LEFT"
	DPadRight  PhysicalButton = "DPAD_RIGHT"
	DPadCenter PhysicalButton = "DPAD_CENTER"
	Enter      PhysicalButton = "enter"
)

func (b PhysicalButton) KeyName() string {
	return string(b)
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// IntentSpec describes an Android intent. Only used to build `am` arguments.
type IntentSpec struct {
	URI        string         `json:"uri,omitempty"`
	Action     string         `json:"action,omitempty"`
	Data       string         `json:"data,omitempty"`
	MimeType   string         `json:"mime_type,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Extras     map[string]any `json:"extras,omitempty"`
	Component  string         `json:"component,omitempty"`
	Flags      int            `json:"flags,omitempty"`
}
