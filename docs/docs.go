// Package docs registers the printer service OpenAPI document with swag.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/handler.HealthResponse"}},
                    "503": {"description": "Service is unhealthy", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "Service is alive"}}
            }
        },
        "/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {"200": {"description": "Service is ready"}, "503": {"description": "Service is not ready"}}
            }
        },
        "/api/v1/printer": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Printer"],
                "summary": "Printer info",
                "responses": {"200": {"description": "Printer state", "schema": {"$ref": "#/definitions/utils.APIResponse"}}}
            }
        },
        "/api/v1/printer/connect": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Printer"],
                "summary": "Connect printer",
                "parameters": [
                    {"description": "Connect request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ConnectRequest"}}
                ],
                "responses": {
                    "200": {"description": "Connected, or selection cancelled", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "409": {"description": "Already connected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "501": {"description": "Unsupported transport", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Connection failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printer/disconnect": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Printer"],
                "summary": "Disconnect printer",
                "responses": {
                    "200": {"description": "Disconnected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Handle release failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printer/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Printer"],
                "summary": "Printer status",
                "responses": {
                    "200": {"description": "Status report", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Status query failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printer/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "List print jobs",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum jobs returned", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Print jobs", "schema": {"$ref": "#/definitions/utils.APIResponse"}}}
            }
        },
        "/api/v1/printer/print/raw": {
            "post": {
                "consumes": ["application/octet-stream"],
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Print raw bytes",
                "responses": {
                    "200": {"description": "Printed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "409": {"description": "Not connected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Write failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printer/print/text": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Print text",
                "parameters": [
                    {"description": "Text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.TextPrintRequest"}}
                ],
                "responses": {
                    "200": {"description": "Printed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "409": {"description": "Not connected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Write failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printer/print/receipt": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Print receipt",
                "parameters": [
                    {"description": "Receipt", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.Receipt"}}
                ],
                "responses": {
                    "200": {"description": "Printed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "409": {"description": "Not connected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Write failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printer/print/image": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Print image",
                "parameters": [
                    {"description": "Image", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ImagePrintRequest"}}
                ],
                "responses": {
                    "200": {"description": "Printed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "409": {"description": "Not connected", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "502": {"description": "Write failed", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ConnectRequest": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "kind": {"type": "string", "enum": ["USB", "BLUETOOTH", "SERIAL", "NETWORK", "API"], "example": "USB"},
                "usb": {"type": "object", "properties": {"vendor_id": {"type": "string"}, "product_id": {"type": "string"}}},
                "bluetooth": {"type": "object", "properties": {
                    "name_prefixes": {"type": "array", "items": {"type": "string"}},
                    "service_uuids": {"type": "array", "items": {"type": "string"}},
                    "service_uuid": {"type": "string"},
                    "characteristic_uuid": {"type": "string"},
                    "chunk_size": {"type": "integer"}
                }},
                "serial": {"type": "object", "properties": {
                    "port": {"type": "string"},
                    "baud_rate": {"type": "integer"},
                    "data_bits": {"type": "integer"},
                    "stop_bits": {"type": "integer"},
                    "parity": {"type": "string"}
                }},
                "network": {"type": "object", "properties": {"endpoint": {"type": "string"}, "host": {"type": "string"}, "port": {"type": "integer"}}},
                "api": {"type": "object", "properties": {"endpoint": {"type": "string"}, "api_key": {"type": "string"}}}
            }
        },
        "handler.TextPrintRequest": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "handler.ImagePrintRequest": {
            "type": "object",
            "properties": {
                "pixels": {"type": "string", "format": "byte"},
                "width": {"type": "integer", "description": "bytes per row"},
                "height": {"type": "integer", "description": "rows in dots"}
            }
        },
        "model.Receipt": {
            "type": "object",
            "properties": {
                "header": {"type": "string"},
                "store_name": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/model.LineItem"}},
                "subtotal": {"type": "string", "example": "3.00"},
                "tax": {"type": "string", "example": "0.24"},
                "total": {"type": "string", "example": "3.24"},
                "footer": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "model.LineItem": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price": {"type": "string", "example": "1.50"}
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "service": {"type": "string"},
                "version": {"type": "string"},
                "uptime": {"type": "string"},
                "checks": {"type": "object"}
            }
        },
        "utils.APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "details": {"type": "string"}}
        },
        "utils.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"$ref": "#/definitions/utils.APIError"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8084",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Printer Service API",
	Description:      "Thermal receipt printer service over USB, Bluetooth, serial, network and API relays.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
