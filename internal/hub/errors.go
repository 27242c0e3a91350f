package hub

import "errors"

var errInvalidSessionURL = errors.New("session url must be absolute and carry a token")
