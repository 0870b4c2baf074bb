package version

// Current defines the application version.
// It defaults to "dev" and is overwritten at build time using -ldflags.
var Current = "dev"

const AppName = "zorse"

// UserAgent identifies zorse in outbound requests.
func UserAgent() string {
	return AppName + "/" + Current
}
