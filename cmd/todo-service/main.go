package main

import (
	"net/http"

	_ "github.com/KarpovAlexandrGo/todo-service/docs"
	"github.com/KarpovAlexandrGo/todo-service/internal/app"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/go-chi/chi"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title           ToDo Service API
// @version         1.0
// @description     Сервис задач с дедлайнами, прогрессом и фильтрами по сроку.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /

func main() {
	a, err := app.NewApp()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize app")
	}

	a.Server.Handler = setupSwagger(a.Server.Handler)

	if err := a.Run(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to run app")
	}
}

// setupSwagger добавляет Swagger UI поверх основного обработчика.
func setupSwagger(handler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Mount("/", handler)

	return r
}
