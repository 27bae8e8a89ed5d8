package booking

import "time"

func SetBackoffBase(d time.Duration) (restore func()) {
	old := backoffBase
	backoffBase = d
	return func() { backoffBase = old }
}
