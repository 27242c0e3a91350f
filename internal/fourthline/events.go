package fourthline

// Shared screen events.
type (
	Retry   struct{}
	Quit    struct{}
	Proceed struct{}
)

// Captured delivers one camera frame.
type Captured struct {
	Image    []byte           `json:"image"`
	Location *Coordinates `json:"location,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StepWarning reports a recoverable scanner hint such as glare.
type StepWarning struct {
	Message string `json:"message"`
}

// StepFailure discards the current capture.
type StepFailure struct {
	Message string `json:"message"`
}

type (
	StepSuccess struct{}
	Retake      struct{}
)

// Completed ends scanning; document scanners report the MRZ fields.
type Completed struct {
	DocumentNumber string `json:"document_number,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
}

// stepResult is the terminal output of the simple fourthline screens.
type stepResult struct {
	Err error
}
