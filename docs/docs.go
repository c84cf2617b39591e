// Package docs registers the Swagger description served under /v1/swagger.
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
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Revoke the current access token and clear the access_token cookie",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/resumes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Recruiters see every resume, applicants only their own",
                "produces": ["application/json"],
                "tags": ["resumes"],
                "summary": "List resumes",
                "parameters": [
                    {"enum": ["id", "title", "content", "applyStatus", "createdAt", "updatedAt"], "type": "string", "description": "Sort field", "name": "sortBy", "in": "query"},
                    {"type": "string", "description": "Sort order, anything but asc sorts descending", "name": "order", "in": "query"},
                    {"type": "string", "description": "Apply status filter", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Create a resume owned by the caller. Its status starts at the first configured status.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["resumes"],
                "summary": "Create a resume",
                "parameters": [
                    {"description": "Resume JSON", "name": "resume", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.CreateResumeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/resumes/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Download the resume listing as an Excel workbook (Recruiter only)",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["resumes"],
                "summary": "Export resumes",
                "parameters": [
                    {"type": "string", "description": "Sort field", "name": "sortBy", "in": "query"},
                    {"type": "string", "description": "Sort order", "name": "order", "in": "query"},
                    {"type": "string", "description": "Apply status filter", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/resumes/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the resume wrapped in a one-element array",
                "produces": ["application/json"],
                "tags": ["resumes"],
                "summary": "Get a resume",
                "parameters": [
                    {"type": "integer", "description": "Resume ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Delete an own resume that has no status history",
                "produces": ["application/json"],
                "tags": ["resumes"],
                "summary": "Delete a resume",
                "parameters": [
                    {"type": "integer", "description": "Resume ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Edit title or content of an own resume. Not allowed once a recruiter changed its status.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["resumes"],
                "summary": "Update a resume",
                "parameters": [
                    {"type": "integer", "description": "Resume ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "resume", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.UpdateResumeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/resumes/{id}/logs": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Set a new apply status and record the change with a reason (Recruiter only)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["resumes"],
                "summary": "Change resume status",
                "parameters": [
                    {"type": "integer", "description": "Resume ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status and reason", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.TransitionStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/resumes/{id}/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Status changes of a resume, newest first (Recruiter only)",
                "produces": ["application/json"],
                "tags": ["resumes"],
                "summary": "Resume status history",
                "parameters": [
                    {"type": "integer", "description": "Resume ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "v1.CreateResumeRequest": {
            "type": "object",
            "required": ["content", "title"],
            "properties": {
                "content": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "v1.TransitionStatusRequest": {
            "type": "object",
            "required": ["reason", "resumeStatus"],
            "properties": {
                "reason": {"type": "string"},
                "resumeStatus": {"type": "string"}
            }
        },
        "v1.UpdateResumeRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "title": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Resume Backend API",
	Description:      "Resume records with recruiter review and an audited status history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
