// Package buildinfo carries version control details stamped at link time:
//
//	go build -ldflags "-X tripplanner.org/internal/buildinfo.CommitHash=$(git rev-parse HEAD)"
package buildinfo

var (
	CommitHash    = "unknown"
	CommitTime    = ""
	CommitMessage = ""
	Branch        = "unknown"
	Version       = "dev"
	BuildTime     = ""
	Dirty         = "false"
	Host          = ""
	UserName      = ""
	UserEmail     = ""
	RemoteURL     = ""
)
