package ans

import (
	"time"

	"github.com/shopspring/decimal"
)

// maxExpirationSecs is the last second of year 262143, the upper bound of
// the calendar range expiration timestamps are allowed to take.
var maxExpirationSecs = time.Date(262143, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()

// expirationTimestamp converts raw epoch seconds into a UTC timestamp.
// Fractional seconds are truncated.
func expirationTimestamp(version uint64, secs decimal.Decimal) (time.Time, error) {
	whole := secs.Truncate(0)
	if whole.IsNegative() {
		return time.Time{}, &InvalidTimestampError{Version: version, Value: secs.String()}
	}
	val := whole.BigInt()
	if !val.IsUint64() || val.Uint64() > uint64(maxExpirationSecs) {
		return time.Time{}, &InvalidTimestampError{Version: version, Value: secs.String()}
	}
	return time.Unix(int64(val.Uint64()), 0).UTC(), nil
}
