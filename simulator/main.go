// Command simulator emulates control-room consoles that receive schedule
// announcements over MQTT and acknowledge them, for end-to-end testing of
// the notification path.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

func main() {
	cfg := parseFlags()
	if err := (&cfg).Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var strat AckStrategy = AutoAck{Delay: cfg.AckLatency}
	if cfg.DropRate > 0 {
		strat = RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate}
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Count; i++ {
		c := NewSimulatedConsole(
			fmt.Sprintf("console%02d", i+1),
			cfg.Broker, cfg.UpdateTopic, cfg.AckTopic, strat,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				log.Printf("%s: %v", c.ID, err)
			}
		}()
	}
	wg.Wait()
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.IntVar(&cfg.Count, "count", 1, "number of consoles")
	flag.StringVar(&cfg.UpdateTopic, "update-topic", "nightq/schedule/update", "announcement topic")
	flag.StringVar(&cfg.AckTopic, "ack-topic", "nightq/schedule/ack", "acknowledgment topic")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 0, "ack latency")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "ack drop rate")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	return cfg
}
