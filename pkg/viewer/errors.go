package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a failed collaborator call (network, server or
	// filesystem). State is left unchanged when one occurs.
	ErrTransport = errors.New("transport error")

	// ErrStaleResponse is returned when a content response arrives for a
	// request that is no longer the latest for the current selection. The
	// response has been discarded; callers normally ignore this error.
	ErrStaleResponse = errors.New("stale response")

	// ErrNotDownloadable is returned when a directory is passed to Download.
	ErrNotDownloadable = errors.New("only files can be downloaded")
)

// Transport wraps err as an ErrTransport for operation op. Both sentinels
// stay reachable through errors.Is. A nil err stays nil.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
