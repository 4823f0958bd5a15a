package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvHTTPPort = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvSocketPort        = "SOCKET_PORT"
	EnvSocketBufferSize  = "SOCKET_BUFFER_SIZE"
	EnvSocketReadTimeout = "SOCKET_READ_TIMEOUT"
	EnvBlobFraming       = "BLOB_FRAMING"
	EnvMaxBlobSize       = "MAX_BLOB_SIZE"

	EnvAccountServiceURL = "ACCOUNT_SERVICE_URL"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"

	EnvMatchThreshold = "FACE_MATCH_THRESHOLD"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
