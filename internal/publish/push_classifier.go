package publish

import "strings"

// PushRejection distinguishes push failures worth retrying from those that will fail again.
type PushRejection int

// Push rejection kinds.
const (
	PushRejectionRetryable PushRejection = iota
	PushRejectionPermanent
)

var permanentPushFailureMarkers = []string{
	"permission denied",
	"authentication failed",
	"could not read username",
	"could not read password",
	"the requested url returned error: 403",
	"the requested url returned error: 401",
	"repository not found",
	"does not appear to be a git repository",
	"invalid username or password",
	"protected branch hook declined",
}

// ClassifyPushFailure inspects push diagnostics and reports whether another attempt could succeed.
func ClassifyPushFailure(standardError string) PushRejection {
	normalizedStandardError := strings.ToLower(standardError)
	for _, marker := range permanentPushFailureMarkers {
		if strings.Contains(normalizedStandardError, marker) {
			return PushRejectionPermanent
		}
	}
	return PushRejectionRetryable
}
