package main

import (
	"log"

	"gw-price-converter/internal/app"
)

func main() {
	app, err := app.NewMonitorApp()
	if err != nil {
		log.Fatalf("не удалось создать монитор: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("ошибка при работе монитора: %v", err)
	}
}
