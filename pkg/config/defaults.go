package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "rideshare"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultHTTPPort = "5000"

	// The port the in-vehicle agents dial. Fixed by the deployed hardware
	// clients, change only in lockstep with them.
	DefaultSocketPort = "65000"

	DefaultSocketBufferSize  = 4096
	DefaultSocketReadTimeout = 0 * time.Second // 0 disables read deadlines

	// FramingSentinel reproduces the historical wire format; FramingLength
	// is the length-prefixed replacement for deployments that control both
	// peers.
	FramingSentinel = "sentinel"
	FramingLength   = "length"

	DefaultBlobFraming = FramingSentinel
	DefaultMaxBlobSize = 16 * 1024 * 1024

	DefaultAccountServiceURL = "http://localhost:5000"

	DefaultKafkaTopic = "vehicle-events"

	DefaultMatchThreshold = 0.6

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
