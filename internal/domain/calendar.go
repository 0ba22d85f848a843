package domain

import (
	"encoding/json"
	"time"
)

// CalendarCell is one position of a month grid. A nil Date marks padding.
type CalendarCell struct {
	Date *time.Time
}

// IsPadding reports whether the cell lies outside the month.
func (c CalendarCell) IsPadding() bool {
	return c.Date == nil
}

// MarshalJSON renders the cell as {"date": "YYYY-MM-DD"} or {"date": null}.
func (c CalendarCell) MarshalJSON() ([]byte, error) {
	var date *string
	if c.Date != nil {
		s := c.Date.Format(DateLayout)
		date = &s
	}
	return json.Marshal(struct {
		Date *string `json:"date"`
	}{Date: date})
}
