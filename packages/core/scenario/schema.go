package scenario

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "scenario document",
  "type": "object",
  "properties": {
    "info": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "description": {"type": "string"}
      }
    },
    "variable": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["key"],
        "properties": {
          "key": {"type": "string"}
        }
      }
    },
    "event": {"$ref": "#/definitions/events"},
    "item": {
      "type": "array",
      "items": {"$ref": "#/definitions/item"}
    }
  },
  "definitions": {
    "keyValue": {
      "type": "object",
      "required": ["key"],
      "properties": {
        "key": {"type": "string"},
        "value": {"type": "string"},
        "disabled": {"type": "boolean"}
      }
    },
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["listen"],
        "properties": {
          "listen": {"type": "string"},
          "script": {
            "type": "object",
            "properties": {
              "exec": {
                "type": ["array", "string"],
                "items": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "item": {
      "type": "object",
      "required": ["request"],
      "properties": {
        "name": {"type": "string"},
        "description": {"type": "string"},
        "request": {
          "type": "object",
          "required": ["method"],
          "properties": {
            "method": {"type": "string", "minLength": 1},
            "url": {
              "type": ["object", "string"],
              "properties": {
                "raw": {"type": "string"},
                "query": {
                  "type": "array",
                  "items": {"$ref": "#/definitions/keyValue"}
                }
              }
            },
            "header": {
              "type": "array",
              "items": {"$ref": "#/definitions/keyValue"}
            },
            "body": {
              "type": "object",
              "properties": {
                "mode": {"type": "string"},
                "raw": {"type": "string"},
                "urlencoded": {
                  "type": "array",
                  "items": {"$ref": "#/definitions/keyValue"}
                },
                "formdata": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["key"],
                    "properties": {
                      "key": {"type": "string"},
                      "type": {"type": "string"},
                      "src": {"type": ["string", "array", "null"]}
                    }
                  }
                }
              }
            }
          }
        },
        "response": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "code": {"type": "integer"},
              "status": {"type": "string"},
              "body": {"type": ["string", "null"]}
            }
          }
        },
        "event": {"$ref": "#/definitions/events"}
      }
    }
  }
}`
