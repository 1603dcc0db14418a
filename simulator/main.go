// Command simulator publishes synthetic charger status messages over MQTT
// so the scheduler's status feed can be exercised without hardware.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	count := flag.Int("count", 5, "number of simulated chargers")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	offlineRate := flag.Float64("offline-rate", 0.02, "per-tick probability of going offline")
	seed := flag.Int64("seed", 0, "RNG seed, 0 for time-based")
	flag.Parse()

	if *count <= 0 {
		log.Fatal("count must be positive")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	cli, err := connect(*broker, fmt.Sprintf("charger-sim-%d", os.Getpid()))
	if err != nil {
		log.Fatalf("mqtt connect: %v", err)
	}
	defer cli.Disconnect(250)

	chargers := GenerateChargers(*count, *offlineRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		publishAll(cli, chargers, rng)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func publishAll(cli publisher, chargers []SimulatedCharger, rng *rand.Rand) {
	hour := time.Now().Hour()
	for i := range chargers {
		status := chargers[i].Step(rng, hour)
		payload, _ := json.Marshal(map[string]string{"status": status.String()})
		topic := fmt.Sprintf("chargers/%s/status", chargers[i].ID)
		if tok := cli.Publish(topic, 1, false, payload); tok.Wait() && tok.Error() != nil {
			log.Printf("publish %s: %v", topic, tok.Error())
		}
	}
}
