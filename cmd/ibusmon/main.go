package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/ibus.go/pkg/framework"
	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

var (
	mqttURL    = "mqtt://localhost:1883/robo/"
	jsonOutput bool
)

func init() {
	if val := os.Getenv("IBUS_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&jsonOutput, "json", jsonOutput, "Print messages in JSON.")
}

func printMessage(topic string, msg msgs.Message) {
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	if jsonOutput {
		data, _ := json.Marshal(map[string]interface{}{"topic": topic, "type": name, "msg": msg})
		fmt.Println(string(data))
		return
	}
	fmt.Printf("%s: [%s] %s\n", topic, name, msg.Serializable().String())
}

func main() {
	flag.Parse()
	defer glog.Flush()

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		glog.Exit(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/meta") {
			fmt.Printf("%s: %s\n", topic, string(payload))
			return
		}
		msg, typed, err := msgs.Decode(payload)
		if err != nil {
			if typed != nil {
				glog.Warningf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			} else {
				glog.Warningf("%s: bad message: %v", topic, err)
			}
			return
		}
		printMessage(topic, msg)
	}))

	if token := q.Connect(); token.Wait() && token.Error() != nil {
		glog.Exit(token.Error())
	}
	r := framework.NewRunner().HandleSignals()
	r.Go(framework.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		q.Close()
		return ctx.Err()
	}))
	if err := r.Wait(); err != nil {
		glog.Exit(err)
	}
}
