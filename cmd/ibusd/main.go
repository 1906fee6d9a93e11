package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/ibus.go/pkg/daemon"
	"github.com/robotalks/ibus.go/pkg/env"
	"github.com/robotalks/ibus.go/pkg/framework"
	"github.com/robotalks/ibus.go/pkg/ibus"
	"github.com/robotalks/ibus.go/pkg/metrics"
	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/serial"
	"github.com/robotalks/ibus.go/pkg/websocket"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := env.Load()
	if err != nil {
		glog.Exitf("config error: %v", err)
	}
	port, err := serial.Open(&conf.Serial)
	if err != nil {
		glog.Exit(err)
	}

	rx := ibus.NewReceiver(port)
	rx.Timeout = conf.Timeout
	rx.ReadTimeout = conf.Serial.TimesOut()

	reg := metrics.NewRegistry()
	m := metrics.NewReceiver(reg, rx)
	sinks := &daemon.SinkMux{OnError: func(name string, err error) {
		m.PublishFailed(name)
	}}

	runner := framework.NewRunner().HandleSignals()
	if conf.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(conf.MQTTBrokerURL, conf.Info())
		if err != nil {
			glog.Exitf("mqtt error: %v", err)
		}
		sinks.Add(pub)
		runner.Go(pub)
	}
	if conf.WebSocketAddr != "" {
		hub := websocket.NewHub()
		sinks.Add(hub)
		runner.Serve("websocket", conf.WebSocketAddr, hub.Handler()).
			Go(framework.NamedRun("websocket-hub", framework.RunFunc(func(ctx context.Context) error {
				<-ctx.Done()
				hub.Close()
				return ctx.Err()
			})))
	}
	if conf.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		runner.Serve("metrics", conf.MetricsAddr, mux)
	}

	// sinks are complete before the bridge starts.
	bridge := daemon.New(conf, rx, sinks)
	bridge.Metrics = m
	runner.Go(bridge,
		framework.NamedRun("receiver", framework.RunFunc(func(ctx context.Context) error {
			err := framework.RunWithContextCloser(ctx, port, func() error {
				return rx.Run(ctx)
			})
			if err == io.EOF {
				glog.Info("end of stream")
				runner.Stop()
				return nil
			}
			return err
		})))

	glog.Infof("receiver %s on %s", conf.Ref.Name(), conf.Serial.Device)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
