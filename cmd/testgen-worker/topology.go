package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/testgen/internal/bus"
	"github.com/shaiso/testgen/internal/config"
	"github.com/shaiso/testgen/internal/mq"
	"github.com/shaiso/testgen/internal/natsbus"
)

func newTopologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Print the bus topology this worker uses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			kind, err := cfg.Transport()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if kind == config.TransportNATS {
				fmt.Fprintln(out, "NATS subscriptions:")
				for _, key := range cfg.Keys() {
					fmt.Fprintf(out, "  %s\n", natsbus.KeySubject(key))
				}
				fmt.Fprintln(out, "NATS publications:")
				fmt.Fprintf(out, "  %s\n", natsbus.Subject(cfg.ExecutorKey, bus.OrderExecuteTestCases))
				fmt.Fprintf(out, "  %s\n", natsbus.Subject(cfg.BroadcastKey, bus.OrderBroadcast))
				return nil
			}

			fmt.Fprint(out, mq.TopologyInfo(mq.Topology{BotID: cfg.BotID, Keys: cfg.Keys()}))
			fmt.Fprintln(out, "Publications:")
			fmt.Fprintf(out, "  %s [routing: %s]\n", mq.ExchangeOrders, mq.OrderRoutingKey(cfg.ExecutorKey, bus.OrderExecuteTestCases))
			fmt.Fprintf(out, "  %s [routing: %s]\n", mq.ExchangeOrders, mq.OrderRoutingKey(cfg.BroadcastKey, bus.OrderBroadcast))
			return nil
		},
	}
}
