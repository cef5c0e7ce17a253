package config

// Set at link time: -ldflags "-X .../internal/config.version=1.2.3"
var (
	version    = "0.1.0"
	subversion = "local"
)

func GetFullVersion() string {
	if subversion != "" {
		return version + "-" + subversion
	}
	return version
}
