package blob

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sunvalleybronze/dropmirror/internal/utils"
)

const (
	DefaultRegion     = "us-east-1"
	DefaultLinkExpiry = 15 * time.Minute
	DefaultPartSize   = 16 * 1024 * 1024
)

type S3Config struct {
	BucketName    string        `mapstructure:"bucket_name"`
	Region        string        `mapstructure:"region"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Endpoint      string        `mapstructure:"endpoint"`
	UseAccelerate bool          `mapstructure:"use_accelerate"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	LinkExpiry    time.Duration `mapstructure:"link_expiry"`
	PartSize      int64         `mapstructure:"part_size"`
}

func (c *S3Config) Validate() error {
	if c.BucketName == "" {
		return fmt.Errorf("bucket_name required")
	}
	if c.Region == "" {
		return fmt.Errorf("region required")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access_key required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key required")
	}
	if c.Endpoint != "" && !utils.IsValidURL(c.Endpoint) {
		return fmt.Errorf("invalid endpoint URL %q", c.Endpoint)
	}
	if c.PublicBaseURL != "" && !utils.IsValidURL(c.PublicBaseURL) {
		return fmt.Errorf("invalid public_base_url %q", c.PublicBaseURL)
	}
	if c.LinkExpiry < 0 || c.LinkExpiry > 7*24*time.Hour {
		return fmt.Errorf("link_expiry must be between 0 and 7 days")
	}
	return nil
}

// PublicURL is the anonymous URL of a public-read object.
func (c *S3Config) PublicURL(key string) string {
	base := c.PublicBaseURL
	if base == "" {
		base = "https://s3.amazonaws.com/" + c.BucketName
	}
	return utils.JoinURL(base, key)
}

func (c *S3Config) linkExpiry() time.Duration {
	if c.LinkExpiry <= 0 {
		return DefaultLinkExpiry
	}
	return c.LinkExpiry
}

func (c S3Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", c.BucketName),
		slog.String("region", c.Region),
		slog.String("accessKey", utils.MaskSecret(c.AccessKey)),
		slog.String("endpoint", c.Endpoint),
		slog.String("publicBaseUrl", c.PublicBaseURL),
	)
}
