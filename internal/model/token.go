package model

// CreateTokenRequest represents request for POST /token/create
type CreateTokenRequest struct {
	Name                 string `json:"name" binding:"required"`
	Symbol               string `json:"symbol" binding:"required"`
	URI                  string `json:"uri"`
	Decimals             uint8  `json:"decimals"`
	Supply               string `json:"supply"` // human amount, e.g. "1000.5"
	SellerFeeBasisPoints uint16 `json:"sellerFeeBasisPoints"`
	IsMutable            *bool  `json:"isMutable,omitempty"` // default true
}

// CreateTokenResponse represents response for POST /token/create
type CreateTokenResponse struct {
	Mint         string `json:"mint"`
	Metadata     string `json:"metadata"`
	TokenAccount string `json:"tokenAccount"`
	Signature    string `json:"signature"`
}

// UpdateMetadataRequest represents request for POST /token/metadata.
// Empty name, symbol and uri leave the content unchanged.
type UpdateMetadataRequest struct {
	Mint                 string  `json:"mint" binding:"required"`
	Name                 string  `json:"name"`
	Symbol               string  `json:"symbol"`
	URI                  string  `json:"uri"`
	SellerFeeBasisPoints uint16  `json:"sellerFeeBasisPoints"`
	NewUpdateAuthority   *string `json:"newUpdateAuthority,omitempty"`
	PrimarySaleHappened  *bool   `json:"primarySaleHappened,omitempty"`
	IsMutable            *bool   `json:"isMutable,omitempty"`
}

// UpdateMetadataResponse represents response for POST /token/metadata
type UpdateMetadataResponse struct {
	Metadata  string `json:"metadata"`
	Signature string `json:"signature"`
}
