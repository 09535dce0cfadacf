package eventstream

import "errors"

// ErrNilChunkEvent indicates a nil chunk event payload was provided to a publisher.
var ErrNilChunkEvent = errors.New("nil chunk event")
