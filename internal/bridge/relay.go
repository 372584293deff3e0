package bridge

import (
	_ "embed"
	"net/http"
)

//go:embed relay.html
var relayPage []byte

// RelayPage serves the page that attaches the browser wallet to the bridge.
// Open it in a browser that has the wallet extension installed.
func RelayPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(relayPage)
	})
}
