// Package config provides layered configuration for baton.
//
// # Sources
//
// Values are looked up, highest precedence first, in:
//   - the process environment
//   - <workspace root>/.batonrc
//   - ~/.batonrc
//
// Both rc files use dotenv syntax (KEY=VALUE per line). Keys are case
// insensitive; the environment is consulted using the upper-cased key.
// Empty environment variables count as unset.
//
// # Cache Directory
//
// The cache root is BATON_HOME_<GOOS>, then BATON_HOME, then
// os.UserCacheDir()/baton. Overrides may use ~ and $VAR.
package config
