// Package docs holds the OpenAPI document served under /swagger. It follows
// the layout swag init produces and must be kept in step with the handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe, pings the book store",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/books": {
            "get": {
                "description": "Get every stored book in storage order",
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List books",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListBooksResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Store a new book. Fields are saved verbatim unless strict validation is enabled; status defaults to \"available\".",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Create a book",
                "parameters": [
                    {
                        "description": "Book to create",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.CreateBookRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.BookResponse"}},
                    "400": {"description": "Malformed body or strict validation failure", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}}
                }
            }
        },
        "/books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Get a book by ID",
                "parameters": [
                    {"type": "integer", "description": "Book ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BookResponse"}},
                    "400": {"description": "Invalid ID", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Delete a book by its ID. Deleting a missing book returns 404.",
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Delete a book",
                "parameters": [
                    {"type": "integer", "description": "Book ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No content", "schema": {"type": "string"}},
                    "400": {"description": "Invalid ID", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Partially update a book by its ID. Only the given fields are written.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Update a book",
                "parameters": [
                    {"type": "integer", "description": "Book ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to update",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.UpdateBookRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BookResponse"}},
                    "400": {"description": "Invalid ID or payload", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}}
                }
            }
        },
        "/books/{id}/borrow": {
            "post": {
                "description": "Mark an available book as borrowed",
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Borrow a book",
                "parameters": [
                    {"type": "integer", "description": "Book ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BookResponse"}},
                    "400": {"description": "Invalid ID", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "409": {"description": "Book is not available", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}}
                }
            }
        },
        "/books/{id}/return": {
            "post": {
                "description": "Mark a borrowed book as available again",
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Return a book",
                "parameters": [
                    {"type": "integer", "description": "Book ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BookResponse"}},
                    "400": {"description": "Invalid ID", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "404": {"description": "Book not found", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}},
                    "409": {"description": "Book is not borrowed", "schema": {"$ref": "#/definitions/validation.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.Book": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "book_type": {"type": "string"},
                "display": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "status": {"type": "string"},
                "year_published": {"type": "integer"}
            }
        },
        "handler.BookResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handler.Book"}
            }
        },
        "handler.CreateBookRequest": {
            "type": "object",
            "properties": {
                "author": {"type": "string", "example": "Frank Herbert"},
                "book_type": {"type": "string", "example": "fiction"},
                "name": {"type": "string", "example": "Dune"},
                "status": {"type": "string", "example": "available"},
                "year_published": {"type": "integer", "example": 1965}
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "db": {"$ref": "#/definitions/handler.StoreStatus"},
                "status": {"type": "string", "example": "ok"},
                "uptime": {"type": "integer"},
                "version": {"type": "string", "example": "0.1.0"}
            }
        },
        "handler.ListBooksResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/handler.Book"}},
                "total": {"type": "integer"}
            }
        },
        "handler.StoreStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "latency_ms": {"type": "integer", "example": 1},
                "status": {"type": "string", "example": "up"}
            }
        },
        "handler.UpdateBookRequest": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "book_type": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string"},
                "year_published": {"type": "integer"}
            }
        },
        "validation.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/validation.FieldError"}},
                "message": {"type": "string"}
            }
        },
        "validation.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"},
                "rule": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Book Library API",
	Description:      "API for storing and lending books.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
