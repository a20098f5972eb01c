package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrPollExhausted is returned when a job is still unfinished after the
	// configured number of status checks
	ErrPollExhausted = errors.New("job did not finish within the polling limit")

	// ErrJobFailed is returned when the service reports the job in error state
	ErrJobFailed = errors.New("generation job failed")

	// ErrEmptyJobID is returned when the service accepts a job without an id
	ErrEmptyJobID = errors.New("service returned an empty job id")
)

// RemoteError is a non-2xx answer from the generation service
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generation service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation service returned status %d: %s", e.StatusCode, e.Body)
}

// IsRemoteError reports whether err carries a RemoteError
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
