package transport

import (
	nethttp "net/http"
	"time"
)

// Response is the result of a successful chain pass. Treat it as immutable.
type Response struct {
	StatusCode int
	Header     nethttp.Header
	Body       Body
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}
