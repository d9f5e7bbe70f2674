package version

// Overwritten at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	BuiltBy   = "unknown"
	BuildArgs = ""
)

var FullVersion = func() string {
	ret := Version
	if Commit != "none" {
		ret += " (" + Commit + ")"
	}
	return ret
}()
