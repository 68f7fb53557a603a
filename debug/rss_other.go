//go:build !unix && !windows

package debug

import "errors"

func residentBytes() (uint64, error) { return 0, errors.New("rss unsupported on this platform") }
