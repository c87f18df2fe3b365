package notify

import (
	"fmt"
	"log/slog"

	"github.com/sunvalleybronze/dropmirror/internal/utils"
)

type Config struct {
	Enabled        bool     `mapstructure:"enabled"`
	SendgridAPIKey string   `mapstructure:"sendgrid_api_key"`
	From           string   `mapstructure:"from"`
	FromName       string   `mapstructure:"from_name"`
	To             []string `mapstructure:"to"`
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", c.Enabled),
		slog.String("sendgrid_api_key", utils.MaskSecret(c.SendgridAPIKey)),
		slog.String("from", c.From),
		slog.Any("to", c.To),
	)
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SendgridAPIKey == "" {
		return ErrKeyMissing
	}
	if err := utils.ValidateEmail(c.From); err != nil {
		return fmt.Errorf("%w: from: %w", ErrInvalidMailSender, err)
	}
	if len(c.To) == 0 {
		return ErrInvalidMailRecipient
	}
	for _, to := range c.To {
		if err := utils.ValidateEmail(to); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidMailRecipient, to, err)
		}
	}
	return nil
}
