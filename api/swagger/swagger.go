package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CCC Evaluation API",
        "description": "Congregation evaluation survey service",
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
        {"name": "Auth", "description": "Session management"},
        {"name": "Responses", "description": "Survey response entry and review"},
        {"name": "Reports", "description": "Aggregated dashboards"},
        {"name": "Transfer", "description": "Backup, import, export and purge"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/responses": {
            "get": {
                "tags": ["Responses"],
                "summary": "List responses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "service", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Responses"],
                "summary": "Submit response",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SurveyForm"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"},
                    "409": {"description": "Duplicate membership code"}
                }
            }
        },
        "/responses/stats": {
            "get": {
                "tags": ["Responses"],
                "summary": "Dashboard counters",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/responses/validate": {
            "post": {
                "tags": ["Responses"],
                "summary": "Validate one form section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "section", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/responses/{id}": {
            "get": {
                "tags": ["Responses"],
                "summary": "Get response",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            },
            "put": {
                "tags": ["Responses"],
                "summary": "Replace response",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SurveyForm"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["Responses"],
                "summary": "Delete response",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/admin/demographics": {
            "get": {
                "tags": ["Reports"],
                "summary": "Demographics report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/service-quality": {
            "get": {
                "tags": ["Reports"],
                "summary": "Service quality report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/departments": {
            "get": {
                "tags": ["Reports"],
                "summary": "Departments report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/ministries": {
            "get": {
                "tags": ["Reports"],
                "summary": "Ministries report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/overall-health": {
            "get": {
                "tags": ["Reports"],
                "summary": "Overall health report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "Combined report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/backup": {
            "get": {
                "tags": ["Transfer"],
                "summary": "Download backup",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {
                    "200": {"description": "Backup file"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/admin/import": {
            "post": {
                "tags": ["Transfer"],
                "summary": "Import JSON backup",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "mode", "in": "formData", "type": "string", "enum": ["add", "replace"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid backup"}
                }
            }
        },
        "/admin/export/csv": {
            "post": {
                "tags": ["Transfer"],
                "summary": "Export filtered CSV",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "filter", "in": "body", "schema": {"$ref": "#/definitions/ExportFilter"}}
                ],
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/admin/export/pdf": {
            "get": {
                "tags": ["Transfer"],
                "summary": "Export summary PDF",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "PDF file"}}
            }
        },
        "/admin/purge": {
            "delete": {
                "tags": ["Transfer"],
                "summary": "Delete all responses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PurgeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Wrong confirmation phrase"},
                    "401": {"description": "Wrong password"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "SurveyForm": {
            "type": "object",
            "properties": {
                "ageGroup": {"type": "string"},
                "gender": {"type": "string", "enum": ["Male", "Female"]},
                "serviceAttendance": {"type": "array", "items": {"type": "string"}},
                "isMember": {"type": "string", "enum": ["Yes", "No"]},
                "membershipCode": {"type": "string"},
                "hasChildren": {"type": "string", "enum": ["Yes", "No"]},
                "overallRating": {"type": "string"},
                "spiritualAtmosphere": {"type": "string"},
                "additionalThoughts": {"type": "string"}
            },
            "required": ["ageGroup", "gender", "serviceAttendance", "isMember", "hasChildren"]
        },
        "ExportFilter": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "service": {"type": "string"},
                "memberStatus": {"type": "string"},
                "rating": {"type": "string"}
            }
        },
        "PurgeRequest": {
            "type": "object",
            "properties": {
                "confirmText": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["confirmText", "password"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
