package bankid

// Retry returns to input after a failure.
type Retry struct{}

// UseFallback accepts the fallback step the server offered.
type UseFallback struct{}

// Quit ends the bank flow as cancelled by the user.
type Quit struct{}
