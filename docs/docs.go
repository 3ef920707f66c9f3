// Package docs регистрирует описание API для swagger UI. Обновляется через swag init -g cmd/main.go.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["misc"], "summary": "Проверка живости сервиса и БД", "responses": {"200": {"description": "status ok"}, "503": {"description": "БД недоступна"}}}},
        "/api/status": {"get": {"tags": ["public"], "summary": "Есть ли сейчас активный турнир", "responses": {"200": {"description": "OK"}}}},
        "/api/competitors": {"get": {"tags": ["public"], "summary": "Участники активного турнира", "responses": {"200": {"description": "OK"}, "404": {"description": "Нет активного турнира"}}}},
        "/api/event-types": {"get": {"tags": ["public"], "summary": "Справочник видов выступлений с рубриками", "responses": {"200": {"description": "OK"}}}},
        "/api/ballots/draft": {
            "get": {"tags": ["ballots"], "summary": "Получить открытый черновик", "parameters": [
                {"type": "string", "name": "deviceId", "in": "query", "required": true},
                {"type": "string", "name": "competitorId", "in": "query", "required": true},
                {"type": "integer", "name": "eventTypeId", "in": "query", "required": true}
            ], "responses": {"200": {"description": "OK"}, "400": {"description": "Не хватает параметров"}}},
            "post": {"tags": ["ballots"], "summary": "Сохранить черновик бюллетеня", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Не хватает идентификаторов"}, "404": {"description": "Нет активного турнира"}}}
        },
        "/api/ballots/submit": {"post": {"tags": ["ballots"], "summary": "Отправить бюллетень", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Ошибка валидации"}, "404": {"description": "Нет активного турнира"}, "409": {"description": "Бюллетень уже отправлен"}}}},
        "/api/ballots/{id}/pdf": {"get": {"tags": ["ballots"], "summary": "PDF бюллетеня (не реализовано)", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"501": {"description": "Не реализовано"}}}},
        "/api/magic/{token}": {"get": {"tags": ["public"], "summary": "Бюллетени участника по ссылке из письма", "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Срок ссылки истёк"}, "404": {"description": "Неизвестная ссылка"}}}},
        "/admin/login": {"post": {"tags": ["auth"], "summary": "Вход администратора", "responses": {"200": {"description": "OK"}, "401": {"description": "Неверный пароль"}, "429": {"description": "Слишком много попыток"}}}},
        "/admin/logout": {"post": {"tags": ["auth"], "summary": "Выход администратора", "responses": {"200": {"description": "OK"}}}},
        "/admin/tournaments": {
            "get": {"tags": ["admin"], "summary": "Все турниры, новые первыми", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["admin"], "summary": "Создать турнир", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Ошибка валидации"}}}
        },
        "/admin/tournaments/{id}": {"get": {"tags": ["admin"], "summary": "Турнир по ID", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}}}},
        "/admin/tournaments/{id}/close": {"put": {"tags": ["admin"], "summary": "Закрыть турнир и разослать ссылки", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}, "409": {"description": "Уже закрыт"}}}},
        "/admin/tournaments/{id}/send-all-links": {"post": {"tags": ["admin"], "summary": "Разослать ссылки всем участникам турнира", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}}}},
        "/admin/tournaments/{id}/rankings": {"get": {"tags": ["admin"], "summary": "Рейтинг турнира по видам выступлений", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}}}},
        "/admin/tournaments/{id}/rankings.xlsx": {"get": {"tags": ["admin"], "summary": "Рейтинг турнира в Excel", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}}}},
        "/admin/tournaments/{id}/rankings/archive": {"post": {"tags": ["admin"], "summary": "Выгрузить таблицу результатов в хранилище", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}, "503": {"description": "Хранилище не настроено"}}}},
        "/admin/tournaments/{id}/competitors-for-import": {"get": {"tags": ["admin"], "summary": "Участники турнира в виде кандидатов на импорт", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/tournaments/{id}/import-competitors": {"post": {"tags": ["admin"], "summary": "Импорт участников в турнир", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Нет массива competitors"}, "404": {"description": "Турнир не найден"}}}},
        "/admin/past-tournaments": {"get": {"tags": ["admin"], "summary": "Закрытые турниры для импорта участников", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/competitors": {
            "get": {"tags": ["admin"], "summary": "Участники турнира", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Нет tournamentId"}}},
            "post": {"tags": ["admin"], "summary": "Добавить участника", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Ошибка валидации"}, "409": {"description": "Email уже занят в турнире"}}}
        },
        "/admin/competitors/{id}": {
            "put": {"tags": ["admin"], "summary": "Изменить участника", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}}},
            "delete": {"tags": ["admin"], "summary": "Удалить участника вместе с его бюллетенями", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}}}
        },
        "/admin/competitors/{id}/resend": {"post": {"tags": ["admin"], "summary": "Повторно отправить ссылку участнику", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Не найден"}}}},
        "/admin/ballots": {"get": {"tags": ["admin"], "summary": "Список бюллетеней (админ)", "security": [{"AdminSession": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Неверный статус"}}}},
        "/admin/ws/tournaments/{id}": {"get": {"tags": ["admin"], "summary": "Лента отправленных бюллетеней турнира (WebSocket)", "security": [{"AdminSession": []}], "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Нет сессии"}, "404": {"description": "Турнир не найден"}}}}
    },
    "securityDefinitions": {
        "AdminSession": {"type": "apiKey", "name": "X-Session-Id", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Speech Ballots API",
	Description:      "Электронные бюллетени судей: черновики, отправка, ссылки для участников и рейтинги.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
