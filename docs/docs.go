// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

// Package docs registers the OpenAPI 2.0 document served at /swagger.
//
// The document follows the swag annotations on the handlers in internal/api.
// Keep both in step when a route changes; `swag init -g cmd/server/docs.go`
// regenerates this file from the annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Repository",
            "url": "https://github.com/tomtom215/theset/issues"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Core"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "Health status", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/health/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Core"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "Process is alive", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Core"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/api.Response"}},
                    "503": {"description": "Database unavailable", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/ticketmaster": {
            "get": {
                "description": "Proxies a Discovery API path with the server-held key. Every query parameter except endpoint is forwarded. Upstream errors are returned verbatim.",
                "produces": ["application/json"],
                "tags": ["Proxy"],
                "summary": "Ticketmaster Discovery proxy",
                "parameters": [
                    {"type": "string", "description": "Relative Discovery path, e.g. events.json", "name": "endpoint", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Upstream body", "schema": {"type": "object"}},
                    "400": {"description": "Missing or invalid endpoint", "schema": {"$ref": "#/definitions/api.Response"}},
                    "500": {"description": "Ticketmaster API key is not configured", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/vote": {
            "post": {
                "description": "Casts a vote for a setlist song as the session user or the anonymous visitor.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Votes"],
                "summary": "Cast a vote",
                "parameters": [
                    {"description": "Song to vote for", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.VoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "New vote count", "schema": {"allOf": [{"$ref": "#/definitions/api.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.VoteResponse"}}}]}},
                    "400": {"description": "Already voted for this song", "schema": {"$ref": "#/definitions/api.Response"}},
                    "403": {"description": "Anonymous vote limit reached", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "Song not found in setlist", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            },
            "delete": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Votes"],
                "summary": "Remove a vote",
                "parameters": [
                    {"description": "Song to unvote", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.VoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "New vote count", "schema": {"allOf": [{"$ref": "#/definitions/api.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.VoteResponse"}}}]}},
                    "404": {"description": "Vote not found", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/sync": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Sync an entity from upstream",
                "parameters": [
                    {"description": "Sync request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.SyncRequestBody"}}
                ],
                "responses": {
                    "200": {"description": "Sync result", "schema": {"$ref": "#/definitions/api.Response"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/api.Response"}},
                    "500": {"description": "Sync failed", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/artists": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Browse"],
                "summary": "List artists",
                "parameters": [
                    {"type": "string", "description": "Name search", "name": "q", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "One page of artists", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/artists/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Browse"],
                "summary": "Get an artist, refreshing it when stale",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Artist", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "Artist not found", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/artists/{id}/shows": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Browse"],
                "summary": "List an artist's shows",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "name": "includePast", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "One page of shows", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/shows": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Browse"],
                "summary": "List shows",
                "parameters": [
                    {"type": "string", "name": "artistId", "in": "query"},
                    {"type": "string", "name": "venueId", "in": "query"},
                    {"type": "boolean", "name": "includePast", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "One page of shows", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/shows/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Browse"],
                "summary": "Get a show, refreshing it when stale",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Show", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "Show not found", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/shows/{id}/setlist": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Browse"],
                "summary": "Get a show's setlist with the caller's votes",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Setlist", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "Setlist not found", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/venues/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Browse"],
                "summary": "Get a venue",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Venue", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "Venue not found", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/cron/process-queue": {
            "post": {
                "security": [{"CronBearer": []}],
                "produces": ["application/json"],
                "tags": ["Cron"],
                "summary": "Process one batch of queued sync tasks",
                "responses": {
                    "200": {"description": "Batch result", "schema": {"$ref": "#/definitions/api.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/cron/refresh-stale": {
            "post": {
                "security": [{"CronBearer": []}],
                "produces": ["application/json"],
                "tags": ["Cron"],
                "summary": "Queue stale artists and upcoming shows",
                "responses": {
                    "200": {"description": "Enqueue result", "schema": {"$ref": "#/definitions/api.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/cron/sync-trending": {
            "post": {
                "security": [{"CronBearer": []}],
                "produces": ["application/json"],
                "tags": ["Cron"],
                "summary": "Queue the most-voted upcoming shows",
                "responses": {
                    "200": {"description": "Enqueue result", "schema": {"$ref": "#/definitions/api.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/cron/cleanup": {
            "post": {
                "security": [{"CronBearer": []}],
                "produces": ["application/json"],
                "tags": ["Cron"],
                "summary": "Release expired leases and delete old completed tasks",
                "responses": {
                    "200": {"description": "Cleanup result", "schema": {"$ref": "#/definitions/api.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/admin/sync-test": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Run a sync and report its duration",
                "parameters": [
                    {"description": "Sync request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.SyncRequestBody"}}
                ],
                "responses": {
                    "200": {"description": "Sync result", "schema": {"$ref": "#/definitions/api.Response"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/api.Response"}},
                    "403": {"description": "Insufficient permissions", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/admin/queue": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Queue counts by status",
                "responses": {
                    "200": {"description": "Queue stats", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Enqueue a sync task",
                "parameters": [
                    {"description": "Task", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.EnqueueRequestBody"}}
                ],
                "responses": {
                    "200": {"description": "Merged into an existing task", "schema": {"$ref": "#/definitions/api.Response"}},
                    "201": {"description": "Task created", "schema": {"$ref": "#/definitions/api.Response"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/admin/performance": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Request latency statistics per endpoint",
                "responses": {
                    "200": {"description": "Performance stats", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        }
    },
    "definitions": {
        "api.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "meta": {"type": "object"}
            }
        },
        "api.VoteRequest": {
            "type": "object",
            "required": ["songId"],
            "properties": {
                "songId": {"type": "string", "maxLength": 64}
            }
        },
        "api.VoteResponse": {
            "type": "object",
            "properties": {
                "songId": {"type": "string"},
                "voteCount": {"type": "integer"}
            }
        },
        "api.SyncRequestBody": {
            "type": "object",
            "properties": {
                "entityType": {"type": "string", "enum": ["artist", "show", "venue", "setlist", "song"]},
                "entityId": {"type": "string", "format": "uuid"},
                "ticketmasterId": {"type": "string"},
                "spotifyId": {"type": "string"},
                "options": {
                    "type": "object",
                    "properties": {
                        "skipDependencies": {"type": "boolean"},
                        "forceRefresh": {"type": "boolean"}
                    }
                }
            }
        },
        "api.EnqueueRequestBody": {
            "allOf": [
                {"$ref": "#/definitions/api.SyncRequestBody"},
                {"type": "object", "properties": {"priority": {"type": "integer", "minimum": 0, "maximum": 4}}}
            ]
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Supabase session token: Bearer <jwt>",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        },
        "CronBearer": {
            "description": "Bearer CRON_SECRET_TOKEN",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "TheSet API",
	Description:      "Concert setlist voting and show data synchronization.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
