package qes

// Retry reloads after a failure.
type Retry struct{}

// Quit abandons signing.
type Quit struct{}
