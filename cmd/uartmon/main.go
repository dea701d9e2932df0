package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/uartlink/pkg/device"
	"github.com/robotalks/uartlink/pkg/l0/comm"
	"github.com/robotalks/uartlink/pkg/telemetry"
	"github.com/robotalks/uartlink/pkg/telemetry/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	devID   = "+"
)

func init() {
	if val := os.Getenv("UARTLINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&devID, "id", devID, "Device ID to monitor.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub(devID+"/"+telemetry.EventsTopic, func(topic string, payload []byte) {
		ev, err := telemetry.DecodeEvent(payload)
		if err != nil {
			log.Printf("%s: bad event: %v", topic, err)
			return
		}
		line := comm.LineStatus(ev.Line)
		switch {
		case line.Failed():
			log.Printf("%s: %s (%s)", ev.Device, ev.Response, line)
		case ev.Status == uint32(comm.StatusVerified):
			log.Printf("%s: %s %s %d bytes", ev.Device, ev.Response, device.CmdName(byte(ev.Cmd)), len(ev.Payload))
		default:
			log.Printf("%s: %s %s", ev.Device, ev.Response, comm.Status(ev.Status))
		}
	})
	<-(chan struct{})(nil)
}
