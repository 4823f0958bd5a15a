package main

import (
	"rideshare/internal/accounts/handler"
	bookingsrepository "rideshare/internal/bookings/repository"
	bookingsservice "rideshare/internal/bookings/service"
	usersrepository "rideshare/internal/users/repository"
	usersservice "rideshare/internal/users/service"
	vehiclesrepository "rideshare/internal/vehicles/repository"
	vehiclesservice "rideshare/internal/vehicles/service"
	"rideshare/pkg/app"
	"rideshare/pkg/config"
	"rideshare/pkg/kafka"
)

const ServiceName = "accounts"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Accounts service")
	accountHandler, producer := initServices(cfg)
	if producer != nil {
		defer producer.Close()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(accountHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config) (*handler.AccountHandler, *kafka.Producer) {
	userRepo := usersrepository.NewMongoUserRepository(cfg)
	userService := usersservice.NewUserService(userRepo, cfg)

	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepository.NewBookingLockRepository(cfg)
	bookingService := bookingsservice.NewBookingService(bookingRepo, lockRepo, nil, cfg)

	publisher, producer := initPublisher(cfg)
	carRepo := vehiclesrepository.NewMongoCarRepository(cfg)
	vehicleService := vehiclesservice.NewVehicleService(carRepo, bookingService, publisher, cfg)

	cfg.Log.Info("Account services initialized", "database", cfg.MongoDatabaseName)
	return handler.NewAccountHandler(userService, bookingService, vehicleService, cfg.Log), producer
}

// initPublisher wires the vehicle event stream. An empty broker list
// disables publishing rather than failing startup.
func initPublisher(cfg *config.Config) (vehiclesservice.EventPublisher, *kafka.Producer) {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Warn("No Kafka brokers configured, vehicle events disabled")
		return nil, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Vehicle event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return vehiclesservice.NewKafkaEventPublisher(producer, ServiceName, cfg), producer
}
