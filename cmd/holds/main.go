package main

import (
	appointmentsrepo "slotkeeper/internal/appointments/repository"
	availabilityrepo "slotkeeper/internal/availability/repository"
	doctorsrepo "slotkeeper/internal/doctors/repository"
	"slotkeeper/internal/holds/conflict"
	"slotkeeper/internal/holds/events"
	"slotkeeper/internal/holds/handler"
	"slotkeeper/internal/holds/repository"
	"slotkeeper/internal/holds/service"
	"slotkeeper/internal/holds/sweeper"
	"slotkeeper/internal/holds/validator"
	"slotkeeper/pkg/app"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/kafka"
	kafka_config "slotkeeper/pkg/kafka/config"
	kafka_middleware "slotkeeper/pkg/kafka/middleware"
)

const ServiceName = "holds"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Holds service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp)
	holdService := initServices(cfg, publisher)

	var leaser sweeper.Leaser
	if cfg.Client.Redis != nil {
		leaser = sweeper.NewRedisLeaser(cfg.Client.Redis, cfg.Log)
	}
	serverApp.AddWorker(sweeper.NewWorker(holdService, leaser, cfg))

	serverApp.SetApp(handler.NewHoldHandler(holdService, cfg.Log))
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Hold events disabled")
		return events.NopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.Logging(cfg.Log))

	publisher := events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
	// Closers run in order: drain queued events before the producer goes away.
	serverApp.OnShutdown(publisher.Close)
	serverApp.OnShutdown(producer.Close)

	return publisher
}

func initServices(cfg *config.Config, publisher events.Publisher) service.HoldService {
	holdValidator := validator.NewHoldValidator(cfg.Log, validator.Limits{
		MinDurationMin:   cfg.HoldMinDurationMin,
		MaxDurationMin:   cfg.HoldMaxDurationMin,
		MaxExtendMinutes: cfg.HoldMaxExtendMinutes,
	})

	holdRepo := repository.NewMongoHoldRepository(cfg)
	guardRepo := repository.NewMongoGuardRepository(cfg)
	appointmentRepo := appointmentsrepo.NewMongoAppointmentRepository(cfg)
	blockRepo := availabilityrepo.NewMongoBlockRepository(cfg)
	doctorRepo := doctorsrepo.NewMongoDoctorRepository(cfg)

	holdService := service.NewHoldService(
		holdRepo,
		guardRepo,
		doctorRepo,
		appointmentRepo,
		conflict.NewResolver(blockRepo, appointmentRepo, holdRepo),
		holdValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Hold service initialized", "database", cfg.MongoDatabaseName, "lease", cfg.HoldLeaseDuration)
	return holdService
}
