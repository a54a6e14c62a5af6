// Package version carries build information injected with -ldflags.
package version

// AppVersion is overwritten at build time:
//
//	go build -ldflags "-X github.com/ndewijer/invest-tracker/internal/version.AppVersion=1.2.0"
var AppVersion = "dev"
