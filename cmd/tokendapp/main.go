// tokendapp runs the local wallet session service.
// Usage: go run ./cmd/tokendapp serve
package main

import (
	"github.com/sirupsen/logrus"

	_ "github.com/AlexZinkM/token-dapp/docs" // registers the swagger spec
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		logrus.Fatal(err)
	}
}
