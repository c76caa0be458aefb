package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/emulator"
	"github.com/sincl1t/m365-digital-twin/internal/logging"
)

var (
	flagBroker    string
	flagDevice    string
	flagTopicBase string
	flagHz        float64
	flagJSONL     string
)

var rootCmd = &cobra.Command{
	Use:   "emulator",
	Short: "Publishes synthetic scooter telemetry to the MQTT broker",
	Long: `Publishes synthetic M365 telemetry (battery, temperatures, speed,
accelerations) to scooter/<device>/telemetry, cycling through ride phases
with different speed and load. Payloads carry fw_src "synthetic" so the
bridge can filter them out when a real device is streaming.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagBroker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	rootCmd.Flags().StringVar(&flagDevice, "device", "m365-lis-01", "device id / tag")
	rootCmd.Flags().StringVar(&flagTopicBase, "topic-base", "scooter", "base topic")
	rootCmd.Flags().Float64Var(&flagHz, "hz", 1.0, "publishing frequency")
	rootCmd.Flags().StringVar(&flagJSONL, "jsonl", "", "optional path to tee the JSON stream")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	topic := fmt.Sprintf("%s/%s/telemetry", flagTopicBase, flagDevice)
	hz := flagHz
	if hz < 0.1 {
		hz = 0.1
	}
	period := time.Duration(float64(time.Second) / hz)

	opts := paho.NewClientOptions().
		AddBroker(flagBroker).
		SetClientID(fmt.Sprintf("m365_emulator_%d", time.Now().Unix())).
		SetKeepAlive(30 * time.Second)
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	var jsonl *os.File
	if flagJSONL != "" {
		jsonl, err = os.OpenFile(flagJSONL, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open jsonl: %w", err)
		}
		defer jsonl.Close()
	}

	logger.Info("publishing telemetry",
		zap.String("topic", topic),
		zap.Float64("hz", hz),
	)

	emu := emulator.New(flagDevice, time.Now().UnixNano())
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	t0 := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("emulator stopped")
			return nil
		case now := <-ticker.C:
			rec := emu.Step(int(now.Sub(t0).Seconds()), now)
			payload, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			token := client.Publish(topic, 0, false, payload)
			token.Wait()
			if token.Error() != nil {
				logger.Warn("publish failed", zap.Error(token.Error()))
				continue
			}
			logger.Info("sent",
				zap.Time("ts", rec.Ts),
				zap.Float64("speed_kmh", rec.Values["speed_kmh"]),
			)
			if jsonl != nil {
				if _, err := jsonl.Write(append(payload, '\n')); err != nil {
					logger.Warn("jsonl write failed", zap.Error(err))
				}
			}
		}
	}
}
