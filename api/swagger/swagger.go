package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Doctor Booking API",
        "description": "Doctor availability and appointment booking. All instants are RFC3339 UTC, dates are YYYY-MM-DD.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Public", "description": "Patient-facing availability and booking"},
        {"name": "Authentication", "description": "Doctor accounts"},
        {"name": "Doctor", "description": "Doctor dashboard and schedule management"}
    ],
    "paths": {
        "/public/availability": {
            "get": {
                "tags": ["Public"],
                "summary": "Doctor availability",
                "parameters": [
                    {"name": "doctor_id", "in": "query", "type": "integer", "required": true},
                    {"name": "from", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "days", "in": "query", "type": "integer", "minimum": 1, "maximum": 31, "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/availability/any": {
            "get": {
                "tags": ["Public"],
                "summary": "Any-doctor availability",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "days", "in": "query", "type": "integer", "minimum": 1, "maximum": 31, "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/book": {
            "post": {
                "tags": ["Public"],
                "summary": "Book an appointment",
                "description": "Rate limited per IP and captcha gated.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookRequest"}}
                ],
                "responses": {
                    "201": {"description": "Booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "VALIDATION_ERROR, WEEKEND_BLOCKED, DOCTOR_REQUIRED or CAPTCHA_FAILED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "SLOT_ALREADY_BOOKED, SLOT_UNAVAILABLE or NO_DOCTOR_AVAILABLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "TOO_MANY_REQUESTS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/doctors": {
            "get": {
                "tags": ["Public"],
                "summary": "Search doctors",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "specialty_id", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/public/specialties": {
            "get": {
                "tags": ["Public"],
                "summary": "List specialties",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register doctor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "EMAIL_TAKEN", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate doctor",
                "description": "Returns the token and sets it as an httpOnly access_token cookie.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "INVALID_CREDENTIALS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Clear the access_token cookie",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/doctor/me": {
            "get": {
                "tags": ["Doctor"],
                "summary": "Current doctor",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/doctor/appointments/today": {
            "get": {
                "tags": ["Doctor"],
                "summary": "Today's appointments",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/doctor/appointments": {
            "get": {
                "tags": ["Doctor"],
                "summary": "Appointments in [from, to)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/doctor/appointments/export": {
            "get": {
                "tags": ["Doctor"],
                "summary": "Export appointments",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File download"}}
            }
        },
        "/doctor/availability": {
            "get": {
                "tags": ["Doctor"],
                "summary": "Own availability",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "days", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/doctor/working-rules": {
            "get": {
                "tags": ["Doctor"],
                "summary": "List working rules",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Doctor"],
                "summary": "Replace working rules of the submitted weekdays",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertWorkingRulesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "VALIDATION_ERROR or WEEKEND_BLOCKED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/doctor/unavailability": {
            "get": {
                "tags": ["Doctor"],
                "summary": "List blocked intervals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Doctor"],
                "summary": "Block an interval",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUnavailabilityRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/doctor/unavailability/{id}": {
            "delete": {
                "tags": ["Doctor"],
                "summary": "Remove a blocked interval",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "BookRequest": {
            "type": "object",
            "required": ["start_at", "patient_name", "patient_email", "patient_phone"],
            "properties": {
                "any": {"type": "boolean"},
                "doctor_id": {"type": "integer"},
                "start_at": {"type": "string", "format": "date-time"},
                "patient_name": {"type": "string"},
                "patient_email": {"type": "string"},
                "patient_phone": {"type": "string"},
                "reason": {"type": "string"},
                "captcha_token": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "specialty_id": {"type": "integer"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "WorkingRuleInput": {
            "type": "object",
            "properties": {
                "weekday": {"type": "integer", "minimum": 1, "maximum": 5},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "17:00"}
            }
        },
        "UpsertWorkingRulesRequest": {
            "type": "object",
            "properties": {
                "rules": {"type": "array", "items": {"$ref": "#/definitions/WorkingRuleInput"}}
            }
        },
        "CreateUnavailabilityRequest": {
            "type": "object",
            "required": ["start_at", "end_at"],
            "properties": {
                "start_at": {"type": "string", "format": "date-time"},
                "end_at": {"type": "string", "format": "date-time"},
                "reason": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/FieldError"}}
            }
        },
        "FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string", "example": "patient_email"},
                "rule": {"type": "string", "example": "email"},
                "param": {"type": "string"}
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
