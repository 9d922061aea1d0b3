package outcome

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	monthAlternation = "january|february|march|april|may|june|july|august|september|october|november|december"

	datePattern     = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlternation + `)\b`)
	tomorrowPattern = regexp.MustCompile(`(?i)\btomorrow\b`)
	timePattern     = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

var monthsByName = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ExtractAppointment scans texts in order and returns the first timestamp built
// from an utterance carrying both a date cue and a time cue. Dates resolve in
// now's year and location.
func ExtractAppointment(texts []string, now time.Time) (time.Time, bool) {
	for _, text := range texts {
		if ts, ok := appointmentIn(text, now); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

func appointmentIn(text string, now time.Time) (time.Time, bool) {
	year, month, day, rest, ok := dateCue(text, now)
	if !ok {
		return time.Time{}, false
	}
	hour, minute, ok := timeCue(rest)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, month, day, hour, minute, 0, 0, now.Location()), true
}

// dateCue returns the resolved date and the text with the cue cut out, so the
// day number cannot be read back as an hour. An explicit date wins over
// "tomorrow"; a malformed explicit date rejects the utterance.
func dateCue(text string, now time.Time) (int, time.Month, int, string, bool) {
	if loc := datePattern.FindStringSubmatchIndex(text); loc != nil {
		day, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			return 0, 0, 0, "", false
		}
		month := monthsByName[strings.ToLower(text[loc[4]:loc[5]])]
		year := now.Year()
		if day < 1 || time.Date(year, month, day, 0, 0, 0, 0, now.Location()).Day() != day {
			return 0, 0, 0, "", false
		}
		return year, month, day, text[:loc[0]] + " " + text[loc[1]:], true
	}
	if loc := tomorrowPattern.FindStringIndex(text); loc != nil {
		y, m, d := now.AddDate(0, 0, 1).Date()
		return y, m, d, text[:loc[0]] + " " + text[loc[1]:], true
	}
	return 0, 0, 0, "", false
}

// timeCue prefers the first match carrying minutes or a meridiem over a bare number.
func timeCue(text string) (int, int, bool) {
	matches := timePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}
	pick := matches[0]
	for _, m := range matches {
		if m[2] != "" || m[3] != "" {
			pick = m
			break
		}
	}
	return toClock(pick[1], pick[2], pick[3])
}

func toClock(hourText, minuteText, meridiem string) (int, int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, 0, false
	}
	minute := 0
	if minuteText != "" {
		if minute, err = strconv.Atoi(minuteText); err != nil || minute > 59 {
			return 0, 0, false
		}
	}

	// "pm" lifts an hour that is still on the morning half; "13pm" stays 13.
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 {
		return 0, 0, false
	}
	return hour, minute, true
}
