// testgen-worker — бот-генератор батчей тест-кейсов.
//
// Worker:
//   - Загружает пользовательскую конфигурацию и OpenAPI спецификацию
//   - Опционально перенаправляет тестируемый сервис через прокси-пир
//   - По расписанию генерирует батч, пишет тестовый класс и отправляет
//     его исполнителям
//   - Принимает приказы паузы для своего сервиса
//
// Использование:
//
//	testgen-worker run        # основной режим
//	testgen-worker once       # один цикл генерации и выход
//	testgen-worker topology   # показать топологию шины
//	testgen-worker status     # состояние работающего воркера (admin API)
//	testgen-worker health     # проверка работающего воркера
//
// Конфигурация — переменные окружения (см. internal/config).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/testgen/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var adminURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "testgen-worker",
		Short:         "testgen worker — scheduled API test case batch generator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", "http://localhost:8082", "Admin API URL of a running worker")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(adminURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		newRunCmd(),
		newOnceCmd(),
		newTopologyCmd(),
		cli.NewStatusCmd(clientFn, outputFn),
		cli.NewHealthCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
