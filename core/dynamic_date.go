package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDynamicDate resolves a report parameter of the form "$date:format:unit:offset".
// Example: "$date:day:day:-1" -> yesterday as "2006-01-02". Values without the
// prefix are returned unchanged.
func ParseDynamicDate(expression string, baseTime time.Time) (string, error) {
	if !strings.HasPrefix(expression, "$date:") {
		return expression, nil
	}

	parts := strings.Split(expression, ":")
	if len(parts) < 4 {
		return "", fmt.Errorf("invalid dynamic date format: %s", expression)
	}

	format := parts[1]
	unit := parts[2]
	offsetStr := parts[3]

	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		return "", fmt.Errorf("invalid offset in dynamic date: %s", expression)
	}

	targetTime := baseTime

	switch unit {
	case "day":
		targetTime = targetTime.AddDate(0, 0, offset)
	case "week":
		targetTime = targetTime.AddDate(0, 0, 7*offset)
	case "month":
		targetTime = targetTime.AddDate(0, offset, 0)
	case "year":
		targetTime = targetTime.AddDate(offset, 0, 0)
	default:
		return "", fmt.Errorf("unsupported unit in dynamic date: %s", unit)
	}

	return formatTime(targetTime, format), nil
}

func formatTime(t time.Time, format string) string {
	switch format {
	case "day":
		return t.Format("2006-01-02")
	case "month":
		return t.Format("2006-01")
	case "year":
		return t.Format("2006")
	case "datetime":
		return t.Format("2006-01-02 15:04:05")
	case "compact":
		return t.Format("20060102")
	case "quarter":
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return t.Format("2006-01-02")
	}
}
