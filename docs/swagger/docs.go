// Package swagger holds the OpenAPI document served under /swagger.
package swagger

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
        "/srd/classes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "List Classes",
                "responses": {
                    "200": {"description": "Classes"}
                }
            }
        },
        "/srd/classes/{key}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "Get Class",
                "parameters": [
                    {"type": "string", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Class"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/srd/classes/{key}/features": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "Class Features",
                "parameters": [
                    {"type": "string", "name": "key", "in": "path", "required": true},
                    {"type": "integer", "name": "level", "in": "query"},
                    {"type": "integer", "name": "max_level", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Features"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/srd/classes/{key}/spells": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "Class Spell List",
                "parameters": [
                    {"type": "string", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Spells"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/srd/classes/{key}/choices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "Class Choices",
                "parameters": [
                    {"type": "string", "name": "key", "in": "path", "required": true},
                    {"type": "integer", "name": "level", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Choice Groups"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/srd/classes/{key}/proficiencies": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "Class Proficiencies",
                "parameters": [
                    {"type": "string", "name": "key", "in": "path", "required": true},
                    {"type": "integer", "name": "level", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Proficiency Grants"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/srd/verify": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "Verify",
                "responses": {
                    "200": {"description": "Report"}
                }
            }
        },
        "/srd/sources/{id}/diff": {
            "get": {
                "produces": ["application/json"],
                "tags": ["srd"],
                "summary": "Snapshot Diff",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Changes"}
                }
            }
        },
        "/characters": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["characters"],
                "summary": "Create Character",
                "responses": {
                    "201": {"description": "Character"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/characters/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["characters"],
                "summary": "Get Character",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Character Sheet"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/characters/{id}/level-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["characters"],
                "summary": "Level Up",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Character Level"},
                    "400": {"description": "Bad Request"},
                    "422": {"description": "Prerequisite Failed"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Codex Manager API",
	Description:      "API for serving derived tabletop rules content.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
