package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/usdc_batchpay/handler"
	"github.com/usdc_batchpay/model"
	"github.com/usdc_batchpay/repository"
	"github.com/usdc_batchpay/router"
	"github.com/usdc_batchpay/service"
	"github.com/usdc_batchpay/utils"
)

type Config struct {
	Postgres struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		DBName   string `mapstructure:"dbname"`
	} `mapstructure:"postgres"`
	Wallet struct {
		// Endpoint is the wallet daemon base URL; ConfirmPollInterval is in seconds.
		Endpoint            string `mapstructure:"endpoint"`
		ConfirmPollInterval int    `mapstructure:"confirm_poll_interval"`
	} `mapstructure:"wallet"`
	Contacts struct {
		// Optional contact directory base URL; contacts endpoint is 503 when unset.
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"contacts"`
	App struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"app"`
}

func main() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("failed to read config:", err)
	}
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatal("failed to parse config:", err)
	}

	utils.InitLogger(slog.LevelInfo)

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.Postgres.Host, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName, cfg.Postgres.Port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to postgres:", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatal("migration failed:", err)
	}

	// Cancelling this context stops the confirmation pollers on shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listRepo := repository.NewListRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	listSvc := service.NewListService(listRepo)
	caster := service.NewHTTPBroadcaster(cfg.Wallet.Endpoint)
	paymentSvc := service.NewPaymentService(ctx, ledgerRepo, caster,
		time.Duration(cfg.Wallet.ConfirmPollInterval)*time.Second)

	var directory service.ContactDirectory
	if cfg.Contacts.Endpoint != "" {
		directory = service.NewHTTPContactDirectory(cfg.Contacts.Endpoint)
	}

	r := router.SetupRouter(
		handler.NewListHandler(listSvc),
		handler.NewCSVHandler(listSvc),
		handler.NewPaymentHandler(paymentSvc, listSvc),
		handler.NewContactHandler(directory),
	)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("batch payment service listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("server failed:", err)
	}
}
