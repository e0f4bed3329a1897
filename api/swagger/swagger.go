package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Booking API",
        "description": "Scheduling backend for a tutoring business: teacher availability, single and recurring lesson booking, conflict confirmation and cost derivation.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Users", "description": "Back-office account administration"},
        {"name": "Teachers", "description": "Teacher directory"},
        {"name": "Students", "description": "Student directory"},
        {"name": "Availability", "description": "Per-teacher per-date open slots"},
        {"name": "Lessons", "description": "Single lesson booking and editing"},
        {"name": "Recurrence", "description": "Weekly series preview, assignment and commit"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email and password",
                "responses": {"200": {"description": "Tokens issued"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new access token",
                "responses": {"200": {"description": "Tokens rotated"}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the current refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Logged out"}}
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Teacher page", "schema": {"$ref": "#/definitions/Envelope"}}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Email already used"}}
            }
        },
        "/teachers/{id}": {
            "get": {"tags": ["Teachers"], "summary": "Get teacher", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Teacher"}}},
            "put": {"tags": ["Teachers"], "summary": "Update teacher", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Updated"}}},
            "delete": {"tags": ["Teachers"], "summary": "Deactivate teacher", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Deactivated"}}}
        },
        "/teachers/{id}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List availability records across a date range",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Availability records"}}
            }
        },
        "/teachers/{id}/availability/{date}": {
            "get": {
                "tags": ["Availability"],
                "summary": "Get one day's slots",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Slot list"}}
            }
        },
        "/teachers/{id}/availability/{date}/slots": {
            "post": {
                "tags": ["Availability"],
                "summary": "Add a slot",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Slot list"}, "409": {"description": "Slot overlaps an existing slot"}}
            }
        },
        "/teachers/{id}/availability/{date}/slots/{index}": {
            "put": {
                "tags": ["Availability"],
                "summary": "Edit a slot by index",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Slot list"}, "409": {"description": "Slot overlaps an existing slot"}}
            },
            "delete": {
                "tags": ["Availability"],
                "summary": "Remove a slot by index",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Slot list"}}
            }
        },
        "/students": {
            "get": {"tags": ["Students"], "summary": "List students", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Student page"}}},
            "post": {"tags": ["Students"], "summary": "Create student", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Student"}}},
            "put": {"tags": ["Students"], "summary": "Update student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Updated"}}},
            "delete": {"tags": ["Students"], "summary": "Deactivate student", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Deactivated"}}}
        },
        "/lessons": {
            "get": {"tags": ["Lessons"], "summary": "List lessons", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Lesson page"}}},
            "post": {
                "tags": ["Lessons"],
                "summary": "Book a single lesson",
                "description": "A teacher double-booking answers 409 with a session id; resubmitting the identical payload with that session id confirms the override.",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Lesson created"}, "409": {"description": "Conflict warning with session id"}}
            }
        },
        "/lessons/{id}": {
            "get": {"tags": ["Lessons"], "summary": "Get lesson", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Lesson"}}},
            "put": {"tags": ["Lessons"], "summary": "Edit lesson keeping its id", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Updated"}, "409": {"description": "Conflict warning"}}},
            "delete": {"tags": ["Lessons"], "summary": "Delete lesson", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/recurrences": {
            "post": {
                "tags": ["Recurrence"],
                "summary": "Generate a weekly series preview",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Preview with draft occurrences"}}
            }
        },
        "/recurrences/teachers": {
            "get": {
                "tags": ["Recurrence"],
                "summary": "Rank teachers for a window, available first",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Ranked teachers"}}
            }
        },
        "/recurrences/{id}": {
            "get": {"tags": ["Recurrence"], "summary": "Get preview", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Preview"}, "404": {"description": "Expired or unknown"}}}
        },
        "/recurrences/{id}/assign": {
            "post": {"tags": ["Recurrence"], "summary": "Assign a teacher to one occurrence", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Preview"}}}
        },
        "/recurrences/{id}/assign-all": {
            "post": {"tags": ["Recurrence"], "summary": "Assign one teacher to every occurrence", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Preview"}}}
        },
        "/recurrences/{id}/price": {
            "post": {"tags": ["Recurrence"], "summary": "Edit one occurrence's price", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Preview"}}}
        },
        "/recurrences/{id}/commit": {
            "post": {
                "tags": ["Recurrence"],
                "summary": "Commit the preview as real lessons",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created lessons"}, "422": {"description": "An occurrence has no teacher"}}
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
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
        "Envelope": {
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
