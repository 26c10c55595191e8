// Package docs registers the generated OpenAPI specification with swag so the
// Swagger UI route can serve it. Regenerate with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ai/translate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["AI"],
                "summary": "Translate a chat message",
                "operationId": "translate",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"},
                    "429": {"description": "Rate limit exceeded"},
                    "502": {"description": "Provider failure"}
                }
            }
        },
        "/ai/replies": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["AI"],
                "summary": "Suggest replies to a message",
                "operationId": "smartReplies",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"},
                    "404": {"description": "Message not found"},
                    "429": {"description": "Rate limit exceeded"},
                    "502": {"description": "Provider failure"}
                }
            }
        },
        "/events/message-created": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Dispatch notifications for a new message",
                "operationId": "messageCreated",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"},
                    "404": {"description": "Conversation not found"}
                }
            }
        },
        "/events/reaction-updated": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Dispatch notifications for reaction changes",
                "operationId": "reactionUpdated",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"},
                    "404": {"description": "Message not found"}
                }
            }
        },
        "/devices/token": {
            "put": {
                "consumes": ["application/json"],
                "tags": ["Devices"],
                "summary": "Register a push token",
                "operationId": "registerToken",
                "responses": {
                    "204": {"description": "Registered"},
                    "400": {"description": "Bad request"}
                }
            },
            "delete": {
                "tags": ["Devices"],
                "summary": "Unregister the caller's push token",
                "operationId": "unregisterToken",
                "responses": {
                    "204": {"description": "Unregistered"}
                }
            }
        },
        "/admin/cache/sweep": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Delete expired cache entries",
                "operationId": "sweepCache",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/cache/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "AI response cache statistics",
                "operationId": "cacheStats",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "go-chat-functions API",
	Description:      "AI translation, smart replies, and push dispatch for a chat app.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
