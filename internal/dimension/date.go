package dimension

import (
	"time"

	whdomain "github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/domain"
)

// dateRow derives every calendar attribute from the date itself.
// Day numbering follows Monday=0; the weekend flag covers Saturday and Sunday.
func dateRow(key int64, day time.Time) whdomain.DimDate {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	_, isoWeek := day.ISOWeek()
	dow := (int(day.Weekday()) + 6) % 7

	return whdomain.DimDate{
		DateKey:   key,
		FullDate:  day,
		Year:      day.Year(),
		Quarter:   (int(day.Month())-1)/3 + 1,
		Month:     int(day.Month()),
		MonthName: day.Month().String(),
		Week:      isoWeek,
		DayOfWeek: dow,
		DayName:   day.Weekday().String(),
		IsWeekend: dow >= 5,
	}
}
