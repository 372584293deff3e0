package model

import "encoding/json"

// PinJSONRequest represents request for POST /ipfs/json
type PinJSONRequest struct {
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content" binding:"required"`
	// ReplaceCID, when set, is unpinned after the new content is pinned.
	ReplaceCID string `json:"replaceCid,omitempty"`
}

// PinResponse represents response for POST /ipfs/...
type PinResponse struct {
	CID  string `json:"cid"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}
