// Package version exposes build metadata set at link time:
//
//	go build -ldflags "-X github.com/kbukum/httputils/version.Version=1.4.0"
//
// The HTTP client uses it for its default User-Agent.
package version
