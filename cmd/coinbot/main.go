package main

import (
	"fmt"
	"log"

	"github.com/m3rciful/coinbot/bots/coin/app"
	"github.com/m3rciful/coinbot/bots/coin/config"
	corecmd "github.com/m3rciful/coinbot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config/coinbot.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			c, ok := cfg.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return app.Bootstrap(c)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
