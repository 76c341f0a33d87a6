package common

import "github.com/nspcc-dev/neo-go/pkg/interop/native/std"

// Relay contract version as major*1_000_000 + minor*1_000 + patch. Must match
// the VERSION file.
const (
	major = 0
	minor = 2
	patch = 0

	Version = major*1_000_000 + minor*1_000 + patch
)

// PrevVersion is the oldest contract version which can be updated to Version
// without a data migration.
const PrevVersion = 0*1_000_000 + 1*1_000 + 0

// Exceptions thrown by CheckVersion.
const (
	ErrVersionMismatch = "previous version mismatch"
	ErrAlreadyUpdated  = "contract is already of the latest version"
)

// CheckVersion panics if the contract of version from can't be updated to the
// current one.
func CheckVersion(from int) {
	if from < PrevVersion {
		panic(ErrVersionMismatch + ": expected >=" + std.Itoa(PrevVersion, 10))
	}
	if from == Version {
		panic(ErrAlreadyUpdated + ": " + std.Itoa(Version, 10))
	}
}

// AppendVersion returns update data with the version of the running contract
// appended, _deploy receives it as the last element.
func AppendVersion(data any) []any {
	if data == nil {
		return []any{Version}
	}
	return append(data.([]any), Version)
}
