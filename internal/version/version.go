package version

// Version is the bhbot release. It is set at build time:
// -ldflags "-X github.com/rxtech-lab/argo-bh/internal/version.Version=v1.2.3"
// "main" marks a development build.
var Version = "v0.4.0"

func GetVersion() string {
	return Version
}
