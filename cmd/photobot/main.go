package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "github.com/m3rciful/photobot/core/cmd"
	"github.com/m3rciful/photobot/internal/app"
	"github.com/m3rciful/photobot/internal/config"
)

func main() {
	// .env is optional; deployments usually set env vars directly.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.New(cfg.(*config.Config))
		},
	})
	if err != nil {
		log.Fatalf("photobot: %v", err)
	}
}
