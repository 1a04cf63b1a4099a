package scheduler

import "errors"

// ErrInvalidSchedule — расписание не удалось разобрать.
var ErrInvalidSchedule = errors.New("invalid generation schedule")
