package http

import "time"

// DefaultTimeout is the default timeout duration for HTTP requests.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent identifies the client to upstream services.
// A desktop browser string keeps the InnerTube endpoint from serving
// degraded responses to unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultMaxLogLength is the maximum size (in bytes) of a dumped
// request or response in debug logs.
const DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB
