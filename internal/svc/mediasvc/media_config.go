package mediasvc

// MediaConfig holds configuration parameters for the media service.
type MediaConfig struct {
	// MaxSize is the maximum allowed file size for uploaded images in bytes.
	// Default is 16MiB.
	MaxSize int64 `env:"MAX_SIZE" default:"16777216"`
}
