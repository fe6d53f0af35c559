// SPDX-License-Identifier: MIT

package model

// Error categories shared by all backends after normalization.
const (
	CategoryUnknown = "unknown"
	CategoryNetwork = "NETWORK"
	CategoryMedia   = "MEDIA"
	CategoryParsing = "PARSING"
	CategoryTimeout = "TIMEOUT"
	CategoryLoad    = "LOAD"
)

// Defaults applied by the normalizer when a producer omits a field.
const (
	DefaultErrorCode    = "-1"
	DefaultErrorMessage = ""
)

// ErrorRecord is the canonical error shape every backend-native error payload
// is mapped into. After normalization Category, Code and Message are always
// strings and Fatal is always set; producers may supply numeric or absent
// values, but consumers never see them.
type ErrorRecord struct {
	Category string
	Code     string
	Message  string
	Data     any
	Fatal    bool
}
