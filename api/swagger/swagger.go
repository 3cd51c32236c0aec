package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Staycation Journal API",
        "description": "Private photo journal: events, days and photos with pre-rendered variants",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Owner login"},
        {"name": "Events", "description": "Trips with a date range and hero photo"},
        {"name": "Days", "description": "One calendar day of an event"},
        {"name": "Images", "description": "Photo upload, ordering and delivery"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in as the journal owner",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events, newest first",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/EventSummary"}}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create an event with its hero photo",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "formData", "name": "title", "type": "string", "required": true},
                    {"in": "formData", "name": "startDate", "type": "string", "format": "date", "required": true},
                    {"in": "formData", "name": "endDate", "type": "string", "format": "date", "required": true},
                    {"in": "formData", "name": "summary", "type": "string"},
                    {"in": "formData", "name": "tags", "type": "string", "description": "Comma separated"},
                    {"in": "formData", "name": "hero", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"},
                    "413": {"description": "Payload too large"},
                    "422": {"description": "Unreadable image"}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Event with its days",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/EventDetail"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Events"],
                "summary": "Edit event fields",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Date range locked while days hold photos"}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete an event, its days and every stored photo",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}, "502": {"description": "Storage error"}}
            }
        },
        "/events/{id}/export": {
            "get": {
                "tags": ["Events"],
                "summary": "Export the event as a PDF journal",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "PDF document"}, "404": {"description": "Not found"}}
            }
        },
        "/days/{id}": {
            "get": {
                "tags": ["Days"],
                "summary": "Day with its ordered photos",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/DayDetail"}}}
            },
            "put": {
                "tags": ["Days"],
                "summary": "Edit day text",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateDayRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Days"],
                "summary": "Delete a day and its photos",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/upload": {
            "post": {
                "tags": ["Images"],
                "summary": "Upload photos into a day",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "formData", "name": "dayId", "type": "string", "required": true},
                    {"in": "formData", "name": "files", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UploadResponse"}},
                    "413": {"description": "Payload too large"}
                }
            }
        },
        "/img/{id}": {
            "get": {
                "tags": ["Images"],
                "summary": "Stream one image variant",
                "produces": ["image/jpeg"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "query", "name": "size", "type": "string", "enum": ["thumb", "web", "orig"]},
                    {"in": "query", "name": "token", "type": "string", "description": "Signed link token, required without a bearer token"}
                ],
                "responses": {"200": {"description": "JPEG bytes"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/reorder": {
            "post": {
                "tags": ["Images"],
                "summary": "Move a photo one slot up or down",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ReorderRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/images/{id}": {
            "put": {
                "tags": ["Images"],
                "summary": "Edit a caption",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateCaptionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ImageView"}}}
            },
            "delete": {
                "tags": ["Images"],
                "summary": "Delete a photo and its stored variants",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}, "502": {"description": "Storage error"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "format": "email"},
                "password": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "issued_at": {"type": "string", "format": "date-time"},
                "email": {"type": "string"}
            }
        },
        "Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "startDate": {"type": "string", "format": "date"},
                "endDate": {"type": "string", "format": "date"},
                "summary": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "heroImageId": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "EventSummary": {
            "allOf": [
                {"$ref": "#/definitions/Event"},
                {"type": "object", "properties": {"heroThumbUrl": {"type": "string"}}}
            ]
        },
        "EventDetail": {
            "allOf": [
                {"$ref": "#/definitions/Event"},
                {
                    "type": "object",
                    "properties": {
                        "hero": {"$ref": "#/definitions/ImageView"},
                        "days": {"type": "array", "items": {"$ref": "#/definitions/Day"}}
                    }
                }
            ]
        },
        "UpdateEventRequest": {
            "type": "object",
            "required": ["title", "startDate", "endDate"],
            "properties": {
                "title": {"type": "string"},
                "startDate": {"type": "string", "format": "date"},
                "endDate": {"type": "string", "format": "date"},
                "summary": {"type": "string"},
                "tags": {"type": "string"}
            }
        },
        "Day": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "eventId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "title": {"type": "string"},
                "locationsText": {"type": "string"},
                "notes": {"type": "string"},
                "sortIndex": {"type": "integer"}
            }
        },
        "DayDetail": {
            "allOf": [
                {"$ref": "#/definitions/Day"},
                {
                    "type": "object",
                    "properties": {
                        "eventTitle": {"type": "string"},
                        "images": {"type": "array", "items": {"$ref": "#/definitions/ImageView"}}
                    }
                }
            ]
        },
        "UpdateDayRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "locationsText": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "ImageView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "dayId": {"type": "string"},
                "caption": {"type": "string"},
                "sortIndex": {"type": "integer"},
                "createdAt": {"type": "string", "format": "date-time"},
                "urls": {
                    "type": "object",
                    "properties": {
                        "thumb": {"type": "string"},
                        "web": {"type": "string"},
                        "orig": {"type": "string"},
                        "expiresAt": {"type": "string", "format": "date-time"}
                    }
                }
            }
        },
        "UploadResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "failed": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "filename": {"type": "string"},
                            "code": {"type": "string"},
                            "message": {"type": "string"}
                        }
                    }
                }
            }
        },
        "ReorderRequest": {
            "type": "object",
            "required": ["imageId", "direction"],
            "properties": {
                "imageId": {"type": "string"},
                "direction": {"type": "string", "enum": ["up", "down"]}
            }
        },
        "UpdateCaptionRequest": {
            "type": "object",
            "properties": {"caption": {"type": "string"}}
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
