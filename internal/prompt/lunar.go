package prompt

import (
	"fmt"
	"time"

	"github.com/6tail/lunar-go/calendar"
)

// LunarDate converts a YYYY-MM-DD Gregorian date to the Chinese lunar date,
// written as 2024年11月1日. Leap months are prefixed with 闰. It returns ""
// when the date does not parse.
func LunarDate(birthDate string) string {
	t, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return ""
	}
	l := calendar.NewSolarFromYmd(t.Year(), int(t.Month()), t.Day()).GetLunar()
	month, leap := l.GetMonth(), ""
	if month < 0 {
		month, leap = -month, "闰"
	}
	return fmt.Sprintf("%d年%s%d月%d日", l.GetYear(), leap, month, l.GetDay())
}
