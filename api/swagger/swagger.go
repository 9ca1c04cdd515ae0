package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grade Report API",
        "description": "Builds final grade reports from uploaded identity and enrollment tables",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reports", "description": "Final grade report generation"},
        {"name": "Observability", "description": "Health and run counters"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Aggregated run counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Build a grade report from uploaded tables",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json", "text/plain", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "names", "in": "formData", "type": "file", "required": true, "description": "Identity table, one id,name per line"},
                    {"name": "courses", "in": "formData", "type": "file", "required": true, "description": "Enrollment table, one id,code,test1,test2,test3,exam per line"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "text", "csv", "pdf"], "default": "json"},
                    {"name": "title", "in": "query", "type": "string", "maxLength": 120}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ReportEnvelope"}},
                    "400": {"description": "Missing upload or unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Empty or unreadable table", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ReportRow": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "course_code": {"type": "string"},
                "final_grade": {"type": "number"}
            }
        },
        "IngestStats": {
            "type": "object",
            "properties": {
                "students_loaded": {"type": "integer"},
                "students_skipped": {"type": "integer"},
                "students_replaced": {"type": "integer"},
                "enrollments_added": {"type": "integer"},
                "enrollments_skipped": {"type": "integer"},
                "skipped_by_kind": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "ReportIssue": {
            "type": "object",
            "properties": {
                "table": {"type": "string"},
                "line": {"type": "integer"},
                "kind": {"type": "string", "enum": ["structural", "range", "cardinality", "uniqueness", "identity", "resource"]},
                "field": {"type": "string"},
                "studentId": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "ReportResponse": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/ReportRow"}},
                "stats": {"$ref": "#/definitions/IngestStats"},
                "issues": {"type": "array", "items": {"$ref": "#/definitions/ReportIssue"}}
            }
        },
        "ReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ReportResponse"},
                "meta": {"type": "object"}
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
