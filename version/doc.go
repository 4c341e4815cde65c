// Package version reports the taskflow build.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/taskflow/version.Version=1.2.0" ./cmd/taskflow
//
// Missing values are filled from the module build info when available.
package version
