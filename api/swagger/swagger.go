package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly timetable generation, conflict checks, substitutes and exports for a senior high school.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetables", "description": "Generate and edit weekly timetables"},
        {"name": "Substitutes", "description": "Cover for absent teachers"},
        {"name": "Absences", "description": "Date-scoped teacher absences"},
        {"name": "Catalog", "description": "Classes, subjects, teachers and rooms"},
        {"name": "Exports", "description": "Asynchronous CSV and PDF exports"},
        {"name": "System", "description": "Process metrics"}
    ],
    "paths": {
        "/catalog": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List classes, subjects, teachers and rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/refresh": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Drop cached catalog entries and reload from the repository",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Cache or repository failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a weekly timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid settings or unknown selection", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a stored timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Discard a stored timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/timetables/{id}/subjects": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Add a subject to one class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSubjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/conflicts/check": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Check a candidate slot for conflicts",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/slots": {
            "put": {
                "tags": ["Timetables"],
                "summary": "Manually assign a lesson to a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict without force", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/substitutes": {
            "get": {
                "tags": ["Substitutes"],
                "summary": "List free substitutes for a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "required": true, "type": "string"},
                    {"name": "day", "in": "query", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "required": true, "type": "integer"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutes": {
            "get": {
                "tags": ["Substitutes"],
                "summary": "List teachers able to replace an absent teacher",
                "parameters": [
                    {"name": "absentTeacher", "in": "query", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "required": true, "type": "string"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "period", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/absences": {
            "post": {
                "tags": ["Absences"],
                "summary": "Mark a teacher absent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/MarkAbsentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown teacher", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/absences": {
            "get": {
                "tags": ["Absences"],
                "summary": "List absent teachers for a date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a timetable export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{jobId}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Process counters as JSON",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "BreakRequest": {
            "type": "object",
            "properties": {
                "period": {"type": "integer"},
                "kind": {"type": "string", "enum": ["break", "lunch"]},
                "label": {"type": "string"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "periodDuration": {"type": "integer"},
                "periodsPerDay": {"type": "integer"},
                "startTime": {"type": "string", "example": "07:00"},
                "selectedClass": {"type": "string"},
                "selectedSubjects": {"type": "array", "items": {"type": "string"}},
                "days": {"type": "array", "items": {"type": "string"}},
                "breaks": {"type": "array", "items": {"$ref": "#/definitions/BreakRequest"}},
                "policy": {"type": "string", "enum": ["first-fit", "least-loaded"]},
                "date": {"type": "string", "example": "2024-03-04"}
            }
        },
        "AddSubjectRequest": {
            "type": "object",
            "required": ["className", "subjectName", "periodsPerWeek"],
            "properties": {
                "className": {"type": "string"},
                "subjectName": {"type": "string"},
                "periodsPerWeek": {"type": "integer"},
                "requiresSpecialRoom": {"type": "boolean"}
            }
        },
        "ConflictCheckRequest": {
            "type": "object",
            "required": ["day", "period", "teacherId", "className"],
            "properties": {
                "day": {"type": "string"},
                "period": {"type": "integer"},
                "teacherId": {"type": "string"},
                "roomId": {"type": "string"},
                "className": {"type": "string"}
            }
        },
        "SlotEditRequest": {
            "type": "object",
            "required": ["className", "day", "period", "subject", "teacherId"],
            "properties": {
                "className": {"type": "string"},
                "day": {"type": "string"},
                "period": {"type": "integer"},
                "subjectId": {"type": "string"},
                "subject": {"type": "string"},
                "teacherId": {"type": "string"},
                "roomId": {"type": "string"},
                "force": {"type": "boolean"}
            }
        },
        "MarkAbsentRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2024-03-04"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "className": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
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
