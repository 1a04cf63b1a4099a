package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей) и дескрипторов (@every, @hourly, ...).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule разбирает расписание генерации.
//
// Поддерживаются:
//   - cron-выражение из 5 полей ("*/5 * * * *")
//   - дескрипторы robfig/cron ("@every 5m", "@hourly")
//   - Go duration ("90s", "5m")
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSchedule)
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d < time.Second {
			return nil, fmt.Errorf("%w: interval %s is shorter than 1s", ErrInvalidSchedule, d)
		}
		return cron.Every(d), nil
	}

	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}
	return schedule, nil
}

// ValidateSchedule проверяет валидность расписания.
func ValidateSchedule(spec string) error {
	_, err := ParseSchedule(spec)
	return err
}
