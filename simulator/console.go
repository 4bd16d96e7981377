package main

import (
	"context"
	"encoding/json"
	"log"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// scheduleUpdate mirrors the announcement payload the service publishes.
type scheduleUpdate struct {
	CommandID string   `json:"command_id"`
	Night     string   `json:"night"`
	OBs       []string `json:"obs"`
	Timestamp int64    `json:"timestamp"`
}

func decodeUpdate(payload []byte) (scheduleUpdate, error) {
	var u scheduleUpdate
	err := json.Unmarshal(payload, &u)
	return u, err
}

// SimulatedConsole stands in for a control-room console: it listens for
// schedule announcements and acknowledges them per its strategy.
type SimulatedConsole struct {
	ID          string
	Broker      string
	UpdateTopic string
	AckTopic    string
	Strategy    AckStrategy

	client paho.Client
	ackCh  chan string
}

// NewSimulatedConsole creates a console.
func NewSimulatedConsole(id, broker, updateTopic, ackTopic string, strat AckStrategy) *SimulatedConsole {
	return &SimulatedConsole{
		ID:          id,
		Broker:      broker,
		UpdateTopic: updateTopic,
		AckTopic:    ackTopic,
		Strategy:    strat,
		ackCh:       make(chan string, 50),
	}
}

// Run connects to the broker and listens for announcements until ctx is done.
func (c *SimulatedConsole) Run(ctx context.Context) error {
	cli, err := newMQTTClient(c.Broker, "sim-"+c.ID)
	if err != nil {
		return err
	}
	c.client = cli
	for i := 0; i < 5; i++ {
		go c.worker(ctx)
	}
	if token := cli.Subscribe(c.UpdateTopic, 0, c.onUpdate(ctx)); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	<-ctx.Done()
	close(c.ackCh)
	cli.Disconnect(250)
	return nil
}

func (c *SimulatedConsole) onUpdate(ctx context.Context) func(paho.Client, paho.Message) {
	return func(_ paho.Client, msg paho.Message) {
		u, err := decodeUpdate(msg.Payload())
		if err != nil {
			log.Printf("%s: decode announcement: %v", c.ID, err)
			return
		}
		log.Printf("%s: schedule for %s with %d obs", c.ID, u.Night, len(u.OBs))
		select {
		case c.ackCh <- u.CommandID:
		default:
			log.Printf("%s: ack queue full, dropping command %s", c.ID, u.CommandID)
		}
	}
}

func (c *SimulatedConsole) worker(ctx context.Context) {
	for {
		select {
		case cmdID, ok := <-c.ackCh:
			if !ok {
				return
			}
			c.Strategy.Ack(ctx, c.client, c.AckTopic, c.ID, cmdID)
		case <-ctx.Done():
			return
		}
	}
}
