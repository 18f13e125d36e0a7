package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gradebook API",
        "description": "Weighted average computation and semester reporting for school gradebooks",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Gradebooks", "description": "Score entry and recomputation"},
        {"name": "Reports", "description": "Semester and subject pass rate reports"},
        {"name": "Students", "description": "Student score sheets"},
        {"name": "Enrollments", "description": "Class roster management"}
    ],
    "paths": {
        "/gradebooks/entries": {
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Enter a batch of scores",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnterScoresRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Scope not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/recompute": {
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Schedule a full scope recomputation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecomputeRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/semester-class": {
            "get": {
                "tags": ["Reports"],
                "summary": "Class pass rate report for a semester",
                "parameters": [
                    {"name": "semesterId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string", "required": true},
                    {"name": "classId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/semester-class/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export a class semester report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "semesterId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string", "required": true},
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered document"}
                }
            }
        },
        "/reports/subject": {
            "get": {
                "tags": ["Reports"],
                "summary": "Subject pass rate report across classes",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/scores": {
            "get": {
                "tags": ["Students"],
                "summary": "Student score sheets, one per enrollment",
                "parameters": [
                    {"name": "studentId", "in": "path", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string", "required": false},
                    {"name": "classId", "in": "query", "type": "string", "required": false},
                    {"name": "subjectId", "in": "query", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Class roster",
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "semesterId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student into a class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate or capacity exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "EnterScoresRequest": {
            "type": "object",
            "required": ["class_id", "semester_id", "subject_id", "entries"],
            "properties": {
                "class_id": {"type": "string"},
                "semester_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ScoreEntry"}
                }
            }
        },
        "ScoreEntry": {
            "type": "object",
            "required": ["student_id", "test_type_id", "occurrence"],
            "properties": {
                "student_id": {"type": "string"},
                "test_type_id": {"type": "string"},
                "occurrence": {"type": "integer", "minimum": 1},
                "value": {"type": "number", "minimum": 0, "maximum": 10}
            }
        },
        "RecomputeRequest": {
            "type": "object",
            "required": ["class_id", "semester_id"],
            "properties": {
                "class_id": {"type": "string"},
                "semester_id": {"type": "string"}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["student_id", "class_id", "semester_id"],
            "properties": {
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "semester_id": {"type": "string"}
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
