package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetKeystorePasswordBytes()
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	PayCooldown int    `envconfig:"PAY_COOLDOWN_MINUTES" default:"1"`

	Network        string        `envconfig:"SOLANA_NETWORK" default:"mainnet"`
	MainnetRPCURL  string        `envconfig:"SOLANA_MAINNET_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	DevnetRPCURL   string        `envconfig:"SOLANA_DEVNET_RPC_URL" default:"https://api.devnet.solana.com"`
	ConfirmTimeout time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"60s"`

	StateFile    string        `envconfig:"STATE_FILE" default:".tokendapp/state.json"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	PollInterval time.Duration `envconfig:"ACCOUNT_POLL_INTERVAL" default:"1s"`

	KeystorePath     string `envconfig:"KEYSTORE_PATH"`
	BridgeEnabled    bool   `envconfig:"BRIDGE_ENABLED" default:"true"`
	BridgeWalletName string `envconfig:"BRIDGE_WALLET_NAME" default:"Phantom"`

	Gateways       []string      `envconfig:"IPFS_GATEWAYS" default:"https://ipfs.io/ipfs/,https://gateway.pinata.cloud/ipfs/,https://cloudflare-ipfs.com/ipfs/,https://dweb.link/ipfs/"`
	GatewayTimeout time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`

	PinataJWT       string `envconfig:"PINATA_JWT"`
	PinataAPIKey    string `envconfig:"PINATA_API_KEY"`
	PinataSecretKey string `envconfig:"PINATA_SECRET_API_KEY"`

	MetadataCacheDSN string        `envconfig:"METADATA_CACHE_DSN"`
	MetadataCacheTTL time.Duration `envconfig:"METADATA_CACHE_TTL" default:"10m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
// A .env file in the working directory (or envFile when set) is loaded first if present.
func Init(envFile string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

func loadEnvFile(envFile string) error {
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return nil
}

// Validate checks values envconfig cannot check by itself.
func (c *Config) Validate() error {
	if c.Network != "mainnet" && c.Network != "devnet" {
		return fmt.Errorf("SOLANA_NETWORK must be mainnet or devnet, got %q", c.Network)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("ACCOUNT_POLL_INTERVAL must be positive")
	}
	if c.GatewayTimeout <= 0 {
		return errors.New("GATEWAY_TIMEOUT must be positive")
	}
	if c.MetadataCacheTTL <= 0 {
		return errors.New("METADATA_CACHE_TTL must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetPayCooldown returns cooldown in minutes from configuration
func GetPayCooldown() int {
	return Get().PayCooldown
}

// GetKeystorePath returns path to .cwt keystore from configuration
func GetKeystorePath() string {
	return Get().KeystorePath
}

// RPCURL returns the RPC endpoint for a network name
func (c *Config) RPCURL(network string) string {
	if network == "devnet" {
		return c.DevnetRPCURL
	}
	return c.MainnetRPCURL
}

var passwordBytes []byte

// PromptForPassword prompts the user for the keystore password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter keystore password: ")
	if err != nil {
		return err
	}

	passwordBytes = raw
	return nil
}

// ReadPassword reads one hidden line from the terminal.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}

// GetKeystorePasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetKeystorePasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}
