package facade

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wesm/groupfn/internal/expr"
)

const (
	dateLayout     = "YYYY-MM-DD"
	dateTimeLayout = "YYYY-MM-DD HH:mm"
	isoLayout      = "2006-01-02T15:04:05.000Z"
)

// Date categories, numbered in the order their headings should appear.
const (
	CategoryOverdue = 1
	CategoryToday   = 2
	CategoryFuture  = 3
	CategoryUndated = 4
)

// Date wraps an optional task date. An absent Date answers every
// accessor with its fallback or an empty sentinel.
type Date struct {
	t     *time.Time
	today time.Time
}

// Field implements expr.Object.
func (d Date) Field(name string) (any, bool) {
	switch name {
	case "format":
		return expr.Func(func(args []any) (any, error) {
			return d.format(argString(args, 0, dateLayout), argString(args, 1, "")), nil
		}), true
	case "asDateText", "formatAsDate":
		return expr.Func(func(args []any) (any, error) {
			return d.format(dateLayout, argString(args, 0, "")), nil
		}), true
	case "asDateTimeText", "formatAsDateAndTime":
		return expr.Func(func(args []any) (any, error) {
			return d.format(dateTimeLayout, argString(args, 0, "")), nil
		}), true
	case "toISOString":
		return expr.Func(func(args []any) (any, error) {
			if d.t == nil {
				return argString(args, 0, ""), nil
			}
			return d.t.UTC().Format(isoLayout), nil
		}), true
	case "moment":
		if d.t == nil {
			return nil, true
		}
		return Moment{t: *d.t}, true
	case "category":
		return d.category(), true
	case "fromNow":
		return d.fromNow(), true
	}
	return nil, false
}

// String renders a present date as YYYY-MM-DD and an absent one as "".
func (d Date) String() string {
	return d.format(dateLayout, "")
}

func (d Date) format(pattern, fallback string) string {
	if d.t == nil {
		return fallback
	}
	return Format(*d.t, pattern)
}

func (d Date) category() expr.Fields {
	if d.t == nil {
		return categoryObject("Undated", CategoryUndated, "")
	}
	day := time.Date(d.t.Year(), d.t.Month(), d.t.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case day.Before(d.today):
		return categoryObject("Overdue", CategoryOverdue, groupText("Overdue", CategoryOverdue))
	case day.Equal(d.today):
		return categoryObject("Today", CategoryToday, groupText("Today", CategoryToday))
	default:
		return categoryObject("Future", CategoryFuture, groupText("Future", CategoryFuture))
	}
}

// fromNow describes the date relative to today. The number is the date
// as YYYYMMDD so that groupText sorts chronologically.
func (d Date) fromNow() expr.Fields {
	if d.t == nil {
		return categoryObject("", 0, "")
	}
	var name string
	if d.t.Equal(d.today) {
		name = "today"
	} else {
		name = humanize.RelTime(*d.t, d.today, "ago", "from now")
	}
	n := d.t.Year()*10000 + int(d.t.Month())*100 + d.t.Day()
	return categoryObject(name, n, groupText(name, n))
}

func categoryObject(name string, number int, text string) expr.Fields {
	return expr.Fields{
		"name":      name,
		"number":    float64(number),
		"groupText": text,
	}
}

// groupText prefixes name with a hidden sort marker.
func groupText(name string, number int) string {
	return fmt.Sprintf("%%%%%d%%%% %s", number, name)
}

// Moment is a present date with moment-style methods.
type Moment struct {
	t time.Time
}

// Field implements expr.Object.
func (m Moment) Field(name string) (any, bool) {
	num := func(f func() int) expr.Func {
		return func([]any) (any, error) { return float64(f()), nil }
	}
	switch name {
	case "format":
		return expr.Func(func(args []any) (any, error) {
			return Format(m.t, argString(args, 0, "YYYY-MM-DDTHH:mm:ssZ")), nil
		}), true
	case "toISOString":
		return expr.Func(func([]any) (any, error) { return m.t.UTC().Format(isoLayout), nil }), true
	case "year":
		return num(m.t.Year), true
	case "month":
		return num(func() int { return int(m.t.Month()) - 1 }), true
	case "date":
		return num(m.t.Day), true
	case "day":
		return num(func() int { return int(m.t.Weekday()) }), true
	case "isoWeek":
		return num(func() int { _, w := m.t.ISOWeek(); return w }), true
	}
	return nil, false
}

func (m Moment) String() string {
	return m.t.Format("Mon Jan 02 2006 15:04:05 GMT-0700")
}

// argString returns args[i] as text, or def when it is missing or null.
func argString(args []any, i int, def string) string {
	if i < len(args) && args[i] != nil {
		return expr.ToString(args[i])
	}
	return def
}
