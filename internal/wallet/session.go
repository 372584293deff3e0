package wallet

import (
	"fmt"
	"time"
)

// Keys of the persisted session state.
const (
	KeyNetwork              = "solana-network"
	KeyWalletName           = "solana-wallet-name"
	KeyConnectTime          = "solana-wallet-connect-time"
	KeyManuallyDisconnected = "solana-wallet-manually-disconnected"

	manualFlagValue = "true"
)

// Network is a selectable cluster.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkDevnet  Network = "devnet"
)

// ParseNetwork validates a network name.
func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case NetworkMainnet, NetworkDevnet:
		return Network(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownNetwork, s)
	}
}

// Status is the connection state of the session.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusDisconnecting
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for _, st := range []Status{StatusIdle, StatusConnecting, StatusConnected, StatusDisconnecting} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Status               Status     `json:"status"`
	Adapter              string     `json:"adapter,omitempty"`
	PublicKey            string     `json:"publicKey,omitempty"`
	BalanceLamports      uint64     `json:"balanceLamports"`
	BalanceSOL           string     `json:"balanceSol"`
	Network              Network    `json:"network"`
	Endpoint             string     `json:"endpoint"`
	ConnectedAt          *time.Time `json:"connectedAt,omitempty"`
	ExpiresAt            *time.Time `json:"expiresAt,omitempty"`
	ManuallyDisconnected bool       `json:"manuallyDisconnected"`
}

// Connected reports whether the snapshot holds an active session.
func (s Snapshot) Connected() bool {
	return s.Status == StatusConnected
}
