package metadata

import (
	"net/url"
	"strings"
)

// ParseIPFS extracts "<cid>[/path]" from an IPFS locator. It recognises
// ipfs://<cid>, ipfs://ipfs/<cid>, path gateways (https://host/ipfs/<cid>),
// subdomain gateways (https://<cid>.ipfs.host/) and bare CIDs.
func ParseIPFS(uri string) (string, bool) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", false
	}

	if rest, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		rest = strings.TrimPrefix(rest, "ipfs/")
		return nonEmpty(strings.TrimLeft(rest, "/"))
	}

	if looksLikeCID(uri) {
		return uri, true
	}

	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	if _, after, ok := strings.Cut(u.Path, "/ipfs/"); ok {
		return nonEmpty(strings.TrimRight(after, "/"))
	}

	if cid, _, ok := strings.Cut(u.Hostname(), ".ipfs."); ok && looksLikeCID(cid) {
		return nonEmpty(cid + strings.TrimRight(u.Path, "/"))
	}

	return "", false
}

func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}

// looksLikeCID accepts CIDv0 (Qm..., 46 chars) and base32 CIDv1 (bafy/bafk...).
func looksLikeCID(s string) bool {
	switch {
	case strings.HasPrefix(s, "Qm") && len(s) == 46:
	case strings.HasPrefix(s, "baf") && len(s) >= 50:
	default:
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
