package prompt

import (
	"strconv"
	"strings"
)

// branches maps two-hour periods to their earthly branch, starting at 23:00.
var branches = [12]string{"子时", "丑时", "寅时", "卯时", "辰时", "巳时", "午时", "未时", "申时", "酉时", "戌时", "亥时"}

// HourBranch returns the traditional two-hour period (时辰) for an HH:mm
// time, or "" when the hour cannot be parsed.
func HourBranch(hhmm string) string {
	h, _, _ := strings.Cut(strings.TrimSpace(hhmm), ":")
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return ""
	}
	return branches[((hour+1)%24)/2]
}
