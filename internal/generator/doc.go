// Package generator выполняет один цикл генерации батча тест-кейсов.
//
// Orchestrator.Tick на каждом тике планировщика:
//   - проверяет окно паузы целевого сервиса
//   - выдаёт новый BatchID
//   - генерирует тест-кейсы и сохраняет их как артефакт <targetDir>/<batchId>
//   - пишет тестовый класс через Writer
//   - публикует BatchReadyEvent исполнителям
//
// Ошибка на любом шаге прерывает цикл и возвращается вызывающему.
// Повторов нет: следующий шанс будет на следующем тике.
package generator
