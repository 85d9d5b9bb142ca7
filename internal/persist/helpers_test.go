package persist

import (
	"strconv"
	"time"
)

func msString(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
