package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bilal/speedtest-agent/internal/communicator"
	"github.com/bilal/speedtest-agent/internal/config"
	"github.com/bilal/speedtest-agent/internal/influx"
	"github.com/bilal/speedtest-agent/internal/logger"
	"github.com/bilal/speedtest-agent/internal/measure"
	"github.com/bilal/speedtest-agent/internal/monitor"
)

func main() {

	// Load config
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config: "+err.Error())
		return
	}

	// Init logger
	logs, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger: "+err.Error())
		return
	}
	defer logs.Close()

	log := logs.File

	// Context cancelled by an operator interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	//------------------------------------------
	// DATASTORE
	//------------------------------------------
	influxClient, err := influx.NewClient(cfg.Influx)
	if err != nil {
		log.Error().Err(err).Msg("error creating Influx database")
		return
	}
	defer influxClient.Close()

	//------------------------------------------
	// OPTIONAL RESULT MIRROR
	//------------------------------------------
	var publisher monitor.Publisher
	producer, err := communicator.NewKafkaProducer(log, cfg.Kafka)
	if err != nil {
		log.Warn().Err(err).Msg("kafka producer disabled")
	} else if producer != nil {
		defer producer.Close()
		publisher = producer
	}

	//------------------------------------------
	// RUN ONCE
	//------------------------------------------
	probe := measure.NewSpeedtestNetProbe(log, measure.ProbeOptions{
		AcceptLicense: cfg.Speedtest.AcceptLicense,
		AcceptGDPR:    cfg.Speedtest.AcceptGDPR,
		ServerIDs:     cfg.Speedtest.ServerIDs,
		PacketLoss:    cfg.Speedtest.PacketLoss,
	})

	mon := monitor.New(
		log,
		cfg.Influx.Database,
		influx.NewBootstrap(log, influxClient),
		measure.NewRunner(log, probe, cfg.Speedtest.MaxRetries),
		influx.NewWriter(logs.Console, influxClient, cfg.Influx.Database),
		publisher,
	)

	// Every outcome has already been logged where it happened.
	if err := mon.Run(ctx); err != nil && !errors.Is(err, measure.ErrRetriesExhausted) {
		log.Debug().Err(err).Msg("run ended without a measurement")
	}
}
