package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCmd создаёт команду status.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := clientFn().Status()
			if err != nil {
				return err
			}
			outputFn().Fields(StatusFields(status), status)
			return nil
		},
	}
}

// NewHealthCmd создаёт команду health.
func NewHealthCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that a running worker is alive and connected to the bus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := clientFn().Health(); err != nil {
				return err
			}
			outputFn().Success("ok")
			return nil
		},
	}
}

// StatusFields раскладывает состояние в строки для вывода.
func StatusFields(s *StatusResponse) [][2]string {
	fields := [][2]string{
		{"bot", s.BotID},
		{"service", s.Service},
	}

	if s.Proxy != nil {
		fields = append(fields, [2]string{"proxy", s.Proxy.ProxyHost})
	}

	orders := "-"
	if len(s.Orders) > 0 {
		orders = strings.Join(s.Orders, ",")
	}
	fields = append(fields, [2]string{"orders", orders})

	paused := "no"
	if s.Paused && s.PausedUntil != nil {
		paused = "until " + s.PausedUntil.UTC().Format(time.RFC3339)
	}
	fields = append(fields, [2]string{"paused", paused})

	if s.NextTick != nil {
		fields = append(fields, [2]string{"next tick", s.NextTick.UTC().Format(time.RFC3339)})
	}

	last := "-"
	if s.LastBatch != nil {
		last = s.LastBatch.BatchID + " (" + s.LastBatch.TestClassName + ")"
	}
	fields = append(fields, [2]string{"last batch", last})

	if s.LockHeld != nil {
		lock := "standby"
		if *s.LockHeld {
			lock = "held"
		}
		fields = append(fields, [2]string{"lock", lock})
	}

	return fields
}
