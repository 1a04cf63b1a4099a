package domain

// BatchID — идентификатор одного цикла генерации.
//
// Уникален в пределах процесса. Используется как имя файла артефакта
// и как суффикс имени тестового класса.
type BatchID string

// String возвращает строковое представление.
func (id BatchID) String() string {
	return string(id)
}

// TestCase — один сгенерированный тест-кейс.
//
// Для оркестратора это непрозрачная запись: он только сохраняет её
// и передаёт writer'у.
type TestCase struct {
	// ID — идентификатор тест-кейса внутри батча.
	ID string `json:"id"`

	// OperationID — operationId из спецификации API.
	OperationID string `json:"operation_id,omitempty"`

	// Method — HTTP метод операции.
	Method string `json:"method"`

	// Path — путь с подставленными path-параметрами.
	Path string `json:"path"`

	// QueryParams — query-параметры.
	QueryParams map[string]string `json:"query_params,omitempty"`

	// Headers — заголовки в формате "Name: value".
	Headers []string `json:"headers,omitempty"`

	// Body — тело запроса (JSON), если есть.
	Body string `json:"body,omitempty"`

	// ExpectedStatus — ожидаемый код ответа (0 — любой 2xx).
	ExpectedStatus int `json:"expected_status,omitempty"`
}

// BatchReadyEvent — событие о готовом батче для executor'ов.
//
// Публикуется ровно один раз на успешный цикл.
type BatchReadyEvent struct {
	BatchID        BatchID `json:"batchId"`
	UserConfigPath string  `json:"userConfigPath"`
	TestClassName  string  `json:"testClassName"`
}

// PauseRequest — входящий запрос на приостановку генерации.
//
// Until — момент окончания паузы в миллисекундах Unix epoch.
// Значение в прошлом снимает паузу немедленно.
type PauseRequest struct {
	Service string `json:"service"`
	Until   int64  `json:"until"`
}

// RecipientBroadcast — получатель широковещательных уведомлений.
const RecipientBroadcast = "broadcast"

// Announcement — уведомление для операторского канала.
type Announcement struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}
