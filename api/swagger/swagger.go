package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Rubric Grader API",
        "description": "Weighted rubric grading workspace: setup, grade entry, summaries and exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Setup",
            "description": "Draft rubric and roster configuration"
        },
        {
            "name": "Grading",
            "description": "Grade entry, structure edits and summaries"
        },
        {
            "name": "Snapshot",
            "description": "Workspace backup and restore"
        },
        {
            "name": "Exports",
            "description": "CSV and PDF grade reports"
        },
        {
            "name": "Observability",
            "description": "Process metrics"
        }
    ],
    "paths": {
        "/setup": {
            "get": {
                "tags": [
                    "Setup"
                ],
                "summary": "Get the draft setup",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Setup"
                ],
                "summary": "Replace the draft setup",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/Setup"
                        }
                    }
                ]
            }
        },
        "/setup/validate": {
            "post": {
                "tags": [
                    "Setup"
                ],
                "summary": "Validate a setup without storing it",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/Setup"
                        }
                    }
                ]
            }
        },
        "/setup/apply": {
            "post": {
                "tags": [
                    "Setup"
                ],
                "summary": "Apply the draft setup to the grade tree",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid setup",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/workspace/view": {
            "put": {
                "tags": [
                    "Grading"
                ],
                "summary": "Switch between the setup editor and the grader",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ViewRequest"
                        }
                    }
                ]
            }
        },
        "/grading": {
            "get": {
                "tags": [
                    "Grading"
                ],
                "summary": "Get the grade tree",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Setup not applied",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/grading/data": {
            "delete": {
                "tags": [
                    "Grading"
                ],
                "summary": "Clear every entered score, override, comment and note",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/grading/summary": {
            "get": {
                "tags": [
                    "Grading"
                ],
                "summary": "Cohort summary across every class",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/grading/note": {
            "put": {
                "tags": [
                    "Grading"
                ],
                "summary": "Replace the overall progress note",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/NoteRequest"
                        }
                    }
                ]
            }
        },
        "/grading/active-class": {
            "put": {
                "tags": [
                    "Grading"
                ],
                "summary": "Select the active class",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ActiveClassRequest"
                        }
                    }
                ]
            }
        },
        "/grading/classes": {
            "post": {
                "tags": [
                    "Grading"
                ],
                "summary": "Add a class with one blank student",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/grading/classes/{class}": {
            "patch": {
                "tags": [
                    "Grading"
                ],
                "summary": "Rename a class or change its support note",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateClassRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Grading"
                ],
                "summary": "Remove a class",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Last class",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    }
                ]
            }
        },
        "/grading/classes/{class}/summary": {
            "get": {
                "tags": [
                    "Grading"
                ],
                "summary": "Metrics of one class",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    }
                ]
            }
        },
        "/grading/classes/{class}/section-order": {
            "put": {
                "tags": [
                    "Grading"
                ],
                "summary": "Change the display order of sections",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SectionOrderRequest"
                        }
                    }
                ]
            }
        },
        "/grading/classes/{class}/selected-student": {
            "put": {
                "tags": [
                    "Grading"
                ],
                "summary": "Select a student inside a class",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectedStudentRequest"
                        }
                    }
                ]
            }
        },
        "/grading/classes/{class}/students": {
            "post": {
                "tags": [
                    "Grading"
                ],
                "summary": "Add a blank student",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    }
                ]
            }
        },
        "/grading/classes/{class}/students/{student}": {
            "patch": {
                "tags": [
                    "Grading"
                ],
                "summary": "Rename a student or set their total override",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "student",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateStudentRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Grading"
                ],
                "summary": "Remove a student",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Last student",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "student",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    }
                ]
            }
        },
        "/grading/classes/{class}/students/{student}/sections/{section}": {
            "put": {
                "tags": [
                    "Grading"
                ],
                "summary": "Set a section override and comment",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "student",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SectionEntryRequest"
                        }
                    }
                ]
            }
        },
        "/grading/classes/{class}/students/{student}/sections/{section}/slots/{slot}": {
            "put": {
                "tags": [
                    "Grading"
                ],
                "summary": "Set one scoring slot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "student",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "slot",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SlotEntryRequest"
                        }
                    }
                ]
            }
        },
        "/grading/sections/{section}": {
            "patch": {
                "tags": [
                    "Grading"
                ],
                "summary": "Rename a section",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RenameRequest"
                        }
                    }
                ]
            }
        },
        "/grading/sections/{section}/items/{slot}": {
            "patch": {
                "tags": [
                    "Grading"
                ],
                "summary": "Rename a scoring item",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "slot",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RenameRequest"
                        }
                    }
                ]
            }
        },
        "/grading/sections/{section}/slots": {
            "post": {
                "tags": [
                    "Grading"
                ],
                "summary": "Add a scoring slot",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Slot limit reached",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Grading"
                ],
                "summary": "Remove the last scoring slot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Slot minimum reached",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    }
                ]
            }
        },
        "/snapshot": {
            "get": {
                "tags": [
                    "Snapshot"
                ],
                "summary": "Export the workspace snapshot",
                "responses": {
                    "200": {
                        "description": "Snapshot",
                        "schema": {
                            "$ref": "#/definitions/Snapshot"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "download",
                        "in": "query",
                        "type": "boolean"
                    }
                ]
            },
            "post": {
                "tags": [
                    "Snapshot"
                ],
                "summary": "Replace the workspace with a snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid snapshot",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/Snapshot"
                        }
                    }
                ]
            }
        },
        "/snapshot/save": {
            "post": {
                "tags": [
                    "Snapshot"
                ],
                "summary": "Persist the workspace now",
                "responses": {
                    "204": {
                        "description": "Saved"
                    }
                }
            }
        },
        "/exports": {
            "post": {
                "tags": [
                    "Exports"
                ],
                "summary": "Store an export behind a signed download link",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExportRequest"
                        }
                    }
                ]
            }
        },
        "/exports/classes/{class}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download a class report",
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ],
                        "default": "csv"
                    },
                    {
                        "name": "sheets",
                        "in": "query",
                        "type": "boolean"
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/exports/classes/{class}/students/{student}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download a student grade sheet",
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "class",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "student",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "minimum": 0
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ],
                        "default": "csv"
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download a stored export",
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "404": {
                        "description": "Invalid link",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "410": {
                        "description": "Expired link",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/system/metrics": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Process level metrics snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "SectionConfig": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "weight": {
                    "type": "number"
                },
                "slots": {
                    "type": "integer"
                },
                "scoringMode": {
                    "type": "string",
                    "enum": [
                        "average",
                        "highest"
                    ]
                },
                "allowDeductions": {
                    "type": "boolean"
                },
                "itemNames": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "ClassConfig": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "studentCount": {
                    "type": "integer"
                },
                "studentNamesText": {
                    "type": "string"
                }
            }
        },
        "Setup": {
            "type": "object",
            "properties": {
                "sectionCount": {
                    "type": "integer"
                },
                "classCount": {
                    "type": "integer"
                },
                "helpThreshold": {
                    "type": "integer"
                },
                "includeComments": {
                    "type": "boolean"
                },
                "sections": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SectionConfig"
                    }
                },
                "classes": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ClassConfig"
                    }
                }
            }
        },
        "StudentSectionRecord": {
            "type": "object",
            "properties": {
                "scores": {
                    "type": "array",
                    "items": {
                        "type": "number",
                        "x-nullable": true
                    }
                },
                "deductions": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "overrideScore": {
                    "type": "number",
                    "x-nullable": true
                },
                "comment": {
                    "type": "string"
                }
            }
        },
        "StudentRecord": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "totalOverride": {
                    "type": "number",
                    "x-nullable": true
                },
                "sections": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/StudentSectionRecord"
                    }
                }
            }
        },
        "ClassRecord": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "classSupportNote": {
                    "type": "string"
                },
                "sectionOrder": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "selectedStudentIndex": {
                    "type": "integer",
                    "x-nullable": true
                },
                "students": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/StudentRecord"
                    }
                }
            }
        },
        "GradingState": {
            "type": "object",
            "properties": {
                "sections": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SectionConfig"
                    }
                },
                "includeComments": {
                    "type": "boolean"
                },
                "helpThreshold": {
                    "type": "integer"
                },
                "overallProgressNote": {
                    "type": "string"
                },
                "activeClassIndex": {
                    "type": "integer",
                    "x-nullable": true
                },
                "classes": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ClassRecord"
                    }
                }
            }
        },
        "Snapshot": {
            "type": "object",
            "properties": {
                "version": {
                    "type": "integer"
                },
                "savedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "activeView": {
                    "type": "string",
                    "enum": [
                        "setup",
                        "grader"
                    ]
                },
                "setup": {
                    "$ref": "#/definitions/Setup"
                },
                "grading": {
                    "$ref": "#/definitions/GradingState"
                }
            }
        },
        "ViewRequest": {
            "type": "object",
            "properties": {
                "view": {
                    "type": "string",
                    "enum": [
                        "setup",
                        "grader"
                    ]
                }
            },
            "required": [
                "view"
            ]
        },
        "NoteRequest": {
            "type": "object",
            "properties": {
                "note": {
                    "type": "string"
                }
            }
        },
        "ActiveClassRequest": {
            "type": "object",
            "properties": {
                "class_index": {
                    "type": "integer",
                    "x-nullable": true
                }
            }
        },
        "SelectedStudentRequest": {
            "type": "object",
            "properties": {
                "student_index": {
                    "type": "integer",
                    "x-nullable": true
                }
            }
        },
        "UpdateClassRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "support_note": {
                    "type": "string"
                }
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "total_override": {
                    "type": "number",
                    "x-nullable": true
                },
                "clear_total_override": {
                    "type": "boolean"
                }
            }
        },
        "SectionOrderRequest": {
            "type": "object",
            "properties": {
                "order": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "from": {
                    "type": "integer"
                },
                "to": {
                    "type": "integer"
                }
            }
        },
        "SectionEntryRequest": {
            "type": "object",
            "properties": {
                "override_score": {
                    "type": "number",
                    "x-nullable": true
                },
                "comment": {
                    "type": "string"
                }
            }
        },
        "SlotEntryRequest": {
            "type": "object",
            "properties": {
                "score": {
                    "type": "number",
                    "x-nullable": true
                },
                "deduction": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 100
                }
            }
        },
        "RenameRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                }
            },
            "required": [
                "name"
            ]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "kind": {
                    "type": "string",
                    "enum": [
                        "class",
                        "student",
                        "class-sheets"
                    ]
                },
                "class_index": {
                    "type": "integer"
                },
                "student_index": {
                    "type": "integer"
                },
                "format": {
                    "type": "string",
                    "enum": [
                        "csv",
                        "pdf"
                    ]
                }
            },
            "required": [
                "kind",
                "format"
            ]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
