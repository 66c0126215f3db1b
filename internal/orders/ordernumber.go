package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderNumberPrefix = "D2B"

// NewOrderGroupNumber mints the shared identifier for one manufacturer's
// items within a payment: D2B-<millis base36>-<random suffix>.
func NewOrderGroupNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return orderNumberPrefix + "-" + ts + "-" + suffix
}
