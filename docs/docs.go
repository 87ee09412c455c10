// Package docs описание API для Swagger UI. Держать в согласии с аннотациями в internal/controller/http.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/tasks": {
            "get": {
                "description": "Возвращает задачи, отфильтрованные по сроку, новые первыми",
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Список задач",
                "parameters": [
                    {
                        "type": "string",
                        "description": "0 (All), 10 (OnlyToday), 20 (OnlyNextDay), 30 (OnlyCurrentWeek), 40 (OnlyNextWeek) или имя фильтра",
                        "name": "filterBy",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.TaskResponse"}}},
                    "400": {"description": "Неизвестный фильтр", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Создает новую задачу с нулевым прогрессом",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Создать задачу",
                "parameters": [
                    {
                        "description": "Данные задачи",
                        "name": "task",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.CreateTaskRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "400": {"description": "Неверный формат данных", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tasks/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Получить задачу",
                "parameters": [
                    {"type": "string", "description": "ID задачи", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "400": {"description": "Неверный формат ID", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Заменяет срок, заголовок, описание и прогресс. Без изменений задача не сохраняется.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Обновить задачу",
                "parameters": [
                    {"type": "string", "description": "ID задачи", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Обновленные данные задачи",
                        "name": "task",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.UpdateTaskRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "400": {"description": "Неверный формат ID или данных", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["tasks"],
                "summary": "Удалить задачу",
                "parameters": [
                    {"type": "string", "description": "ID задачи", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Неверный формат ID", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tasks/{id}/completionPercentage": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Изменить прогресс",
                "parameters": [
                    {"type": "string", "description": "ID задачи", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Прогресс 0-100",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.UpdateCompletionPercentageRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "400": {"description": "Неверный формат ID или данных", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tasks/{id}/done": {
            "patch": {
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Завершить задачу",
                "parameters": [
                    {"type": "string", "description": "ID задачи", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "400": {"description": "Неверный формат ID", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.CreateTaskRequest": {
            "type": "object",
            "required": ["expiryAt", "title"],
            "properties": {
                "description": {"type": "string", "maxLength": 5000},
                "expiryAt": {"type": "string"},
                "title": {"type": "string", "maxLength": 100}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "http.TaskResponse": {
            "type": "object",
            "properties": {
                "completionPercentage": {"type": "integer"},
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "expiryAt": {"type": "string"},
                "id": {"type": "string"},
                "isDone": {"type": "boolean"},
                "title": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "http.UpdateCompletionPercentageRequest": {
            "type": "object",
            "required": ["completionPercentage"],
            "properties": {
                "completionPercentage": {"type": "integer", "maximum": 100, "minimum": 0}
            }
        },
        "http.UpdateTaskRequest": {
            "type": "object",
            "required": ["expiryAt", "title"],
            "properties": {
                "completionPercentage": {"type": "integer", "maximum": 100, "minimum": 0},
                "description": {"type": "string", "maxLength": 5000},
                "expiryAt": {"type": "string"},
                "title": {"type": "string", "maxLength": 100}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ToDo Service API",
	Description:      "Сервис задач с дедлайнами, прогрессом и фильтрами по сроку.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
