package generator

import "errors"

// Ошибки цикла генерации. Каждая соответствует стадии, на которой цикл прервался.
var (
	// ErrGeneration — генератор не смог построить тест-кейсы.
	ErrGeneration = errors.New("test case generation failed")

	// ErrPersistence — не удалось сохранить артефакт батча.
	ErrPersistence = errors.New("batch persistence failed")

	// ErrWrite — не удалось записать тестовый класс.
	ErrWrite = errors.New("test class write failed")

	// ErrPublish — не удалось опубликовать BatchReadyEvent.
	ErrPublish = errors.New("batch-ready publish failed")
)
