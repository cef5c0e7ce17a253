package transport

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

const (
	sendRetries  = 6
	retryBackoff = time.Millisecond
)

// writeRetry retries write while the kernel reports ENOBUFS.
// Losing a probe breaks the hop sequence, so wait a bit instead of dropping it.
// Do not retry infinitely.
func writeRetry(write func() (int, error)) (n int, err error) {
	for tries := sendRetries; tries > 0; tries-- {
		n, err = write()
		if err != nil && errors.Is(err, unix.ENOBUFS) {
			time.Sleep(retryBackoff * time.Duration(sendRetries-tries+1))
			continue
		}
		break
	}
	return n, err
}
