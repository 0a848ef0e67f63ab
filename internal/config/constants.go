package config

// Configuration keys. Each may be set in the environment or an rc file.
const (
	KeyVersion         = "USE_BAZEL_VERSION"
	KeyFallbackVersion = "USE_BAZEL_FALLBACK_VERSION"
	KeyHome            = "BATON_HOME"
	KeyBaseURL         = "BATON_BASE_URL"
	KeyGitHubToken     = "BATON_GITHUB_TOKEN"
	KeyUserAgent       = "BATON_USER_AGENT"
	KeySkipWrapper     = "BATON_SKIP_WRAPPER"
	KeyVerifier        = "BATON_VERIFIER"
	KeyReleaseKeyFile  = "BATON_RELEASE_KEY_FILE"
	KeyReleaseKeyURL   = "BATON_RELEASE_KEY_URL"
	KeyVerifySHA256    = "BATON_VERIFY_SHA256"
	KeyDebug           = "BATON_DEBUG"
)

const (
	// RCFileName is the rc file read from the workspace root and home directory.
	RCFileName = ".batonrc"

	// homeDirName is the directory created under the user cache directory.
	homeDirName = "baton"
)
