package data

import (
	"errors"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

// Date is a calendar day carried as "YYYY-MM-DD" in JSON.
type Date time.Time

func (d *Date) UnmarshalJSON(jsonValue []byte) error {
	unquotedJSONValue, err := strconv.Unquote(string(jsonValue))
	if err != nil {
		return ErrInvalidDateFormat
	}

	t, err := time.Parse(DateLayout, unquotedJSONValue)
	if err != nil {
		return ErrInvalidDateFormat
	}

	*d = Date(t)

	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d Date) String() string {
	return time.Time(d).Format(DateLayout)
}

func (d Date) IsZero() bool {
	return time.Time(d).IsZero()
}

// ParseDate parses a query-string date. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDateFormat
	}
	return Date(t), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
