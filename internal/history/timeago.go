package history

import (
	"fmt"
	"time"
)

// TimeAgo renders t relative to now: "Just now", "5m ago", "3h ago", "2d ago".
func TimeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)

	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}
