// Code scaffolded in the teacher's goctl style. Safe to edit.
package config

import (
	"time"

	"github.com/zeromicro/go-zero/rest"
)

// Config is the gateway's boot-time configuration, YAML-loaded via
// go-zero's conf.MustLoad the same way the teacher's services/*/etc/*.yaml
// files are.
type Config struct {
	rest.RestConf

	Database struct {
		DataSource string
	}
	Redis struct {
		Host     string
		Password string
		DB       int
	}

	Auth struct {
		AccessSecret       string
		Issuer             string
		Audience           string
		AccessExpire       time.Duration
		MaxSessionsPerUser int
		RequireEmailVerify bool
		PublicBaseURL      string
	}

	Lockout struct {
		MaxAttempts int
		BaseLockout time.Duration
		MaxLockout  time.Duration
	}

	OAuth struct {
		Google struct {
			ClientID     string
			ClientSecret string
		}
		Apple struct {
			ClientID     string
			ClientSecret string
		}
	}

	WebAuthn struct {
		RPID          string
		RPDisplayName string
		RPOrigins     []string
	}

	SSO struct {
		SecretKey string
	}

	AllowedRedirectHosts []string

	Wallet struct {
		Argon2Time    uint32
		Argon2Memory  uint32
		Argon2Threads uint8
	}

	APIKey struct {
		Secret string
	}

	Webhook struct {
		Secret     string
		Timeout    time.Duration
		MaxRetries int
	}

	Email struct {
		Provider  string // "log", "noop", or "postmark"
		Postmark  struct {
			APIToken  string
			FromEmail string
		}
	}

	Chain struct {
		SolanaRPCEndpoint string
	}

	Cookies struct {
		Enabled           bool
		Domain            string
		Secure            bool
		SameSite          string // "lax", "strict", or "none"
		AccessCookieName  string
		RefreshCookieName string
		PathPrefix        string
	}

	OutboxMaxPerSecond float64
}
