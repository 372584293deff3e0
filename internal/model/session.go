package model

// ConnectRequest represents request for POST /wallet/connect
type ConnectRequest struct {
	Adapter string `json:"adapter" binding:"required"`
}

// NetworkRequest represents request for POST /wallet/network
type NetworkRequest struct {
	Network string `json:"network" binding:"required"` // mainnet or devnet
}

// AdapterInfo represents one entry of GET /wallet/adapters
type AdapterInfo struct {
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Installed bool   `json:"installed"`
}

// AutoConnectResponse represents response for POST /wallet/autoconnect
type AutoConnectResponse struct {
	Connected bool `json:"connected"`
}

// QRResponse represents response for GET /wallet/qr
type QRResponse struct {
	Address string `json:"address"`
	QR      string `json:"qr"` // base64 PNG
}
