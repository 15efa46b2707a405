package main

import (
	"log"

	"gw-price-converter/internal/app"
)

// @title           Listing Price Converter API
// @version         1.0
// @description     Пересчёт цен объявлений в валюты посетителя с кэшем курсов и резервной таблицей

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	if err := app.BuildConversionLayer(); err != nil {
		log.Fatalf("Ошибка сборки приложения: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
