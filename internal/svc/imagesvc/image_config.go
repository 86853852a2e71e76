package imagesvc

// ImageConfig holds configuration parameters for image normalization.
type ImageConfig struct {
	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`

	// MaxDimension is the largest width or height a stored image may have
	MaxDimension int `env:"MAX_DIMENSION" default:"1200"`

	// Quality is the JPEG encoding quality (1-100)
	Quality int `env:"QUALITY" default:"85"`

	// MaxPixels is the largest width*height that is decoded; 0 disables the check.
	// Larger images are rejected before any pixel data is allocated.
	MaxPixels int64 `env:"MAX_PIXELS" default:"89478485"`

	// WebPExtended selects the extended WebP container for re-encoded images.
	WebPExtended bool `env:"WEBP_EXTENDED" default:"false"`
}
