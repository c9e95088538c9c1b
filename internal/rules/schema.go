package rules

// Document schema enforced before decoding. Unknown condition/action
// tags fail here, at load time, instead of surfacing inside the engine.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "structures": {
      "type": "object",
      "additionalProperties": { "$ref": "#/$defs/structure" }
    },
    "templates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "rules"],
        "properties": {
          "name": { "type": "string", "minLength": 1 },
          "description": { "type": "string" },
          "tags": { "type": "array", "items": { "type": "string" } },
          "rules": { "type": "array", "items": { "$ref": "#/$defs/rule" } }
        }
      }
    },
    "rules": {
      "type": "array",
      "items": { "$ref": "#/$defs/rule" }
    }
  },
  "$defs": {
    "rule": {
      "type": "object",
      "required": ["name", "priority", "conditions", "actions"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "priority": { "type": "integer" },
        "conditions": { "type": "array", "items": { "$ref": "#/$defs/condition" } },
        "actions": { "type": "array", "minItems": 1, "items": { "$ref": "#/$defs/action" } }
      }
    },
    "condition": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {
          "enum": [
            "TerrainType", "ElevationRange", "NearWater",
            "MinDistanceFrom", "MaxDistanceFrom", "AdjacentTo",
            "SlopeRange", "ViewDistance", "WindExposure",
            "ResourceAvailable", "RoadAccess", "And", "Or", "Not"
          ]
        },
        "conditions": { "type": "array", "items": { "$ref": "#/$defs/condition" } },
        "condition": { "$ref": "#/$defs/condition" }
      }
    },
    "action": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {
          "enum": [
            "PlaceStructure", "PlaceStructureCluster", "ModifyTerrain",
            "SetTerrain", "SetElevation", "GenerateWall", "GenerateRoad",
            "CreateWaterFeature", "SpawnResource", "ApplyTemplate"
          ]
        },
        "structure": { "$ref": "#/$defs/structure" }
      }
    },
    "structure": {
      "type": "object",
      "properties": {
        "name": { "type": "string" },
        "structure_type": { "type": "string", "minLength": 1 },
        "footprint": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["q", "r", "terrain"],
            "properties": {
              "q": { "type": "integer" },
              "r": { "type": "integer" },
              "terrain": { "type": "string" }
            }
          }
        },
        "parent_template": { "type": "string" }
      }
    }
  }
}`
