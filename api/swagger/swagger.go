package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Defense Scheduler API",
        "description": "Capstone defense scheduling: panel assignment, slot scheduling and room allocation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Operator authentication"},
        {"name": "Defense", "description": "Scheduling pipeline runs"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Dependencies unavailable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate the scheduling operator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/defense/solve": {
            "post": {
                "tags": ["Defense"],
                "summary": "Run the defense scheduling pipeline",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Schedule produced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Precondition violation in the input tables"},
                    "422": {"description": "Model infeasible or solver timed out; diagnostics findings included"},
                    "503": {"description": "No solver backend available"}
                }
            }
        },
        "/defense/runs": {
            "get": {
                "tags": ["Defense"],
                "summary": "List stored pipeline runs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["SUCCEEDED", "INFEASIBLE", "NOT_SOLVED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/defense/runs/{id}": {
            "get": {
                "tags": ["Defense"],
                "summary": "Get one stored run with its schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Run not found"}
                }
            }
        },
        "/defense/runs/{id}/export": {
            "get": {
                "tags": ["Defense"],
                "summary": "Export a run's schedule as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered document"},
                    "404": {"description": "Run not found"},
                    "412": {"description": "Run produced no schedule"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SolveRequest": {
            "type": "object",
            "required": ["projects", "panelists", "expertise", "slots", "availability"],
            "properties": {
                "projects": {"type": "array", "items": {"$ref": "#/definitions/Project"}},
                "panelists": {"type": "array", "items": {"$ref": "#/definitions/Panelist"}},
                "expertise": {"type": "object", "description": "panelist id -> topic -> has expertise"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "availability": {"type": "object", "description": "panelist id -> slot id -> free"},
                "engines": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Project": {
            "type": "object",
            "properties": {
                "project_id": {"type": "string"},
                "topic": {"type": "string"},
                "supervisor_id": {"type": "string"},
                "required_panelists": {"type": "integer"}
            }
        },
        "Panelist": {
            "type": "object",
            "properties": {
                "panelist_id": {"type": "string"},
                "max_panels": {"type": "integer"}
            }
        },
        "TimeSlot": {
            "type": "object",
            "properties": {
                "slot_id": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "room": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
