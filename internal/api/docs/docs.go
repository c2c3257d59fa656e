// Package docs registers the OpenAPI document served under /docs.
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
        "/players": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "List ingested players",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PlayerList"}}
                }
            }
        },
        "/players/{playerID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Full game log history of one player",
                "parameters": [
                    {"type": "string", "description": "Player id", "name": "playerID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/provider.PlayerRecord"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/players/{playerID}/years/{year}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "One season of a player's games",
                "parameters": [
                    {"type": "string", "description": "Player id", "name": "playerID", "in": "path", "required": true},
                    {"type": "string", "description": "Season (four digits)", "name": "year", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PlayerYear"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/schema": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schema"],
                "summary": "Canonical stat names",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SchemaList"}}
                }
            }
        }
    },
    "definitions": {
        "handler.PlayerList": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/store.Summary"}}
            }
        },
        "handler.PlayerYear": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "year": {"type": "string"},
                "games": {"type": "array", "items": {"$ref": "#/definitions/provider.GameRecord"}}
            }
        },
        "handler.SchemaEntry": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "column": {"type": "string"},
                "name": {"type": "string"},
                "tip": {"type": "string"}
            }
        },
        "handler.SchemaList": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/handler.SchemaEntry"}}
            }
        },
        "provider.Fantasy": {
            "type": "object",
            "properties": {
                "standard": {"type": "number"},
                "half_ppr": {"type": "number"},
                "ppr": {"type": "number"}
            }
        },
        "provider.GameRecord": {
            "type": "object",
            "properties": {
                "week": {"type": "integer"},
                "date": {"type": "string"},
                "team": {"type": "string"},
                "opponent": {"type": "string"},
                "home": {"type": "boolean"},
                "stats": {"type": "object", "additionalProperties": {}},
                "fantasy": {"$ref": "#/definitions/provider.Fantasy"}
            }
        },
        "provider.PlayerRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "years": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "object",
                        "properties": {
                            "games": {"type": "array", "items": {"$ref": "#/definitions/provider.GameRecord"}}
                        }
                    }
                }
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                }
            }
        },
        "store.Summary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "years": {"type": "array", "items": {"type": "string"}},
                "games": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Scoracle Gamelogs API",
	Description:      "Read-only access to ingested NFL player game logs, fantasy scores and the canonical stat schema.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
