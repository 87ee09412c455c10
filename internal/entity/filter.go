package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filter выбирает задачи по сроку относительно текущего момента.
type Filter int

const (
	FilterAll             Filter = 0
	FilterOnlyToday       Filter = 10
	FilterOnlyNextDay     Filter = 20
	FilterOnlyCurrentWeek Filter = 30
	FilterOnlyNextWeek    Filter = 40
)

// Tick наименьший шаг времени, общий для всех хранилищ (Postgres хранит микросекунды).
const Tick = time.Microsecond

var filterNames = map[Filter]string{
	FilterAll:             "All",
	FilterOnlyToday:       "OnlyToday",
	FilterOnlyNextDay:     "OnlyNextDay",
	FilterOnlyCurrentWeek: "OnlyCurrentWeek",
	FilterOnlyNextWeek:    "OnlyNextWeek",
}

// Filters все известные фильтры.
func Filters() []Filter {
	return []Filter{FilterAll, FilterOnlyToday, FilterOnlyNextDay, FilterOnlyCurrentWeek, FilterOnlyNextWeek}
}

func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return "Filter(" + strconv.Itoa(int(f)) + ")"
}

func (f Filter) Valid() bool {
	_, ok := filterNames[f]
	return ok
}

// ParseFilter принимает числовое значение ("10") или имя ("OnlyToday").
// Пустая строка означает FilterAll.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FilterAll, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		f := Filter(n)
		if !f.Valid() {
			return 0, fmt.Errorf("unknown filter value %d", n)
		}
		return f, nil
	}
	for f, name := range filterNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

// Window интервал по сроку выполнения.
// Дневные окна исключают обе границы, недельные включают обе.
type Window struct {
	From      time.Time
	To        time.Time
	Inclusive bool
}

func (w Window) Contains(t time.Time) bool {
	if w.Inclusive {
		return !t.Before(w.From) && !t.After(w.To)
	}
	return t.After(w.From) && t.Before(w.To)
}

// Window вычисляет интервал относительно now в часовом поясе now.
// Дневные окна начинаются с полуночи, недельные сохраняют время суток now.
// Для FilterAll возвращает false.
func (f Filter) Window(now time.Time) (Window, bool) {
	today := startOfDay(now)
	switch f {
	case FilterOnlyToday:
		return dayWindow(today), true
	case FilterOnlyNextDay:
		return dayWindow(today.AddDate(0, 0, 1)), true
	case FilterOnlyCurrentWeek:
		return weekWindow(startOfWeek(now)), true
	case FilterOnlyNextWeek:
		return weekWindow(startOfWeek(now).AddDate(0, 0, 7)), true
	default:
		return Window{}, false
	}
}

// Match проверяет срок задачи по фильтру.
func (f Filter) Match(expiryAt, now time.Time) bool {
	w, ok := f.Window(now)
	if !ok {
		return true
	}
	return w.Contains(expiryAt)
}

func dayWindow(start time.Time) Window {
	return Window{From: start, To: start.AddDate(0, 0, 1).Add(-Tick)}
}

func weekWindow(start time.Time) Window {
	return Window{From: start, To: start.AddDate(0, 0, 7).Add(-Tick), Inclusive: true}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek тот же момент суток в ближайшее прошедшее воскресенье.
func startOfWeek(now time.Time) time.Time {
	return now.AddDate(0, 0, -int(now.Weekday()))
}
