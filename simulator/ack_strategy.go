package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// AckStrategy defines how a console acknowledges schedule announcements.
type AckStrategy interface {
	Ack(ctx context.Context, cli paho.Client, topic, consoleID, commandID string)
}

// AutoAck sends an ACK after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, cli paho.Client, topic, consoleID, commandID string) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishAck(cli, topic, consoleID, commandID)
}

// RandomAck drops acknowledgments with the configured probability and
// waits for the specified delay before sending.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, cli paho.Client, topic, consoleID, commandID string) {
	if r.DropRate > 0 && rng.Float64() < r.DropRate {
		log.Printf("%s: dropping ack for %s", consoleID, commandID)
		return
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishAck(cli, topic, consoleID, commandID)
}

// publishAck sends the acknowledgment. The console id rides along so
// multi-console runs show who answered.
func publishAck(cli paho.Client, topic, consoleID, commandID string) {
	payload, err := json.Marshal(struct {
		CommandID string `json:"command_id"`
		Console   string `json:"console"`
	}{CommandID: commandID, Console: consoleID})
	if err != nil {
		log.Printf("marshal ack: %v", err)
		return
	}
	token := cli.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("ack publish timeout for %s", consoleID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish ack error for %s: %v", consoleID, err)
	}
}
