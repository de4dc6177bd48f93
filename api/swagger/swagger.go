package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Routine API",
        "description": "Daily schedule resolution, session lifecycle and fee installment planning for schools.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Schedules", "description": "Resolved daily schedules and session lifecycle"},
        {"name": "Routines", "description": "Time slots and weekly routine templates"},
        {"name": "Fees", "description": "Fee plans, student allocations and payments"},
        {"name": "Health", "description": "Liveness and readiness probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe checking database and cache",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/schools/{schoolId}/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Resolve the effective schedule of a class-section for a date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/schedules/overrides": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Override subject, teacher or remarks of one session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyOverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/schedules/attendance": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Flag sessions as attendance-taken",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/sessions/{sessionId}/status": {
            "patch": {
                "tags": ["Schedules"],
                "summary": "Move a session through its lifecycle",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/time-slots": {
            "get": {
                "tags": ["Routines"],
                "summary": "List time slots ordered by display order",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "includeInactive", "in": "query", "required": false, "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Routines"],
                "summary": "Create a time slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimeSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/time-slots/{slotId}": {
            "delete": {
                "tags": ["Routines"],
                "summary": "Deactivate a time slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "slotId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/routines": {
            "get": {
                "tags": ["Routines"],
                "summary": "List the weekly routine of a class-section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "query", "required": true, "type": "string"},
                    {"name": "dayOfWeek", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Routines"],
                "summary": "Create or replace the routine entry of a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertRoutineEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/routines/{routineId}": {
            "delete": {
                "tags": ["Routines"],
                "summary": "Deactivate a routine entry, keeping it as history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "routineId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/fee-plans": {
            "get": {
                "tags": ["Fees"],
                "summary": "List fee plans",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": false, "type": "string"},
                    {"name": "categoryId", "in": "query", "required": false, "type": "string"},
                    {"name": "page", "in": "query", "required": false, "type": "integer"},
                    {"name": "limit", "in": "query", "required": false, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Fees"],
                "summary": "Create a fee plan and distribute its total across installments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFeePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/fee-plans/{planId}": {
            "get": {
                "tags": ["Fees"],
                "summary": "Get a fee plan with its installments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "planId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Fees"],
                "summary": "Update a fee plan and rebalance its installments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "planId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFeePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/fee-plans/{planId}/allocations": {
            "post": {
                "tags": ["Fees"],
                "summary": "Allocate a fee plan's installments to a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "planId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AllocateFeePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/students/{studentId}/fee-allocations": {
            "get": {
                "tags": ["Fees"],
                "summary": "List a student's fee allocations",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/fee-allocations/{allocationId}/payments": {
            "post": {
                "tags": ["Fees"],
                "summary": "Record a payment against an allocation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "allocationId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ApplyOverrideRequest": {
            "type": "object",
            "required": ["academicYearId", "classId", "sectionId", "date", "timeSlotId"],
            "properties": {
                "academicYearId": {"type": "string"},
                "classId": {"type": "string"},
                "sectionId": {"type": "string"},
                "date": {"type": "string", "example": "2024-06-03"},
                "timeSlotId": {"type": "string"},
                "subjectOverride": {"type": "string"},
                "teacherOverride": {"type": "string"},
                "remarks": {"type": "string"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "required": ["academicYearId", "classId", "sectionId", "date", "timeSlotIds"],
            "properties": {
                "academicYearId": {"type": "string"},
                "classId": {"type": "string"},
                "sectionId": {"type": "string"},
                "date": {"type": "string", "example": "2024-06-03"},
                "timeSlotIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "TransitionStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["SCHEDULED", "CONDUCTED", "CANCELLED", "POSTPONED"]}
            }
        },
        "CreateTimeSlotRequest": {
            "type": "object",
            "required": ["slotName", "startTime", "endTime", "slotType"],
            "properties": {
                "slotName": {"type": "string"},
                "startTime": {"type": "string", "example": "09:00"},
                "endTime": {"type": "string", "example": "09:45"},
                "displayOrder": {"type": "integer"},
                "slotType": {"type": "string", "enum": ["TEACHING", "BREAK", "LUNCH", "ASSEMBLY"]}
            }
        },
        "UpsertRoutineEntryRequest": {
            "type": "object",
            "required": ["academicYearId", "classId", "sectionId", "dayOfWeek", "timeSlotId"],
            "properties": {
                "academicYearId": {"type": "string"},
                "classId": {"type": "string"},
                "sectionId": {"type": "string"},
                "dayOfWeek": {"type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"]},
                "timeSlotId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "remarks": {"type": "string"}
            }
        },
        "InstallmentInput": {
            "type": "object",
            "required": ["installmentNo"],
            "properties": {
                "installmentNo": {"type": "integer"},
                "name": {"type": "string"},
                "periodStartDate": {"type": "string"},
                "periodEndDate": {"type": "string"},
                "dueDate": {"type": "string"}
            }
        },
        "CreateFeePlanRequest": {
            "type": "object",
            "required": ["academicYearId", "categoryId", "totalAmount", "frequency"],
            "properties": {
                "academicYearId": {"type": "string"},
                "categoryId": {"type": "string"},
                "name": {"type": "string"},
                "totalAmount": {"type": "string", "example": "100.00"},
                "frequency": {"type": "string", "enum": ["MONTHLY", "QUARTERLY", "HALF_YEARLY", "ANNUAL"]},
                "installmentsCount": {"type": "integer"},
                "installments": {"type": "array", "items": {"$ref": "#/definitions/InstallmentInput"}}
            }
        },
        "UpdateFeePlanRequest": {
            "type": "object",
            "required": ["totalAmount", "frequency"],
            "properties": {
                "name": {"type": "string"},
                "totalAmount": {"type": "string", "example": "100.00"},
                "frequency": {"type": "string", "enum": ["MONTHLY", "QUARTERLY", "HALF_YEARLY", "ANNUAL"]},
                "installmentsCount": {"type": "integer"},
                "installments": {"type": "array", "items": {"$ref": "#/definitions/InstallmentInput"}}
            }
        },
        "AllocateFeePlanRequest": {
            "type": "object",
            "required": ["studentId"],
            "properties": {
                "studentId": {"type": "string"}
            }
        },
        "RecordPaymentRequest": {
            "type": "object",
            "required": ["amount", "method"],
            "properties": {
                "amount": {"type": "string", "example": "100.00"},
                "paidAt": {"type": "string"},
                "method": {"type": "string", "enum": ["CASH", "CARD", "BANK_TRANSFER", "UPI", "CHEQUE", "ONLINE"]},
                "reference": {"type": "string"}
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
