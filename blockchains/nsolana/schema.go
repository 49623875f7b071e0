package nsolana

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const compilerOutputSchemaText = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": { "type": "boolean" },
    "serialized_tx": { "type": "string" },
    "error": { "type": "string" }
  },
  "if": { "properties": { "success": { "const": true } } },
  "then": {
    "required": ["serialized_tx"],
    "properties": { "serialized_tx": { "minLength": 1 } }
  }
}`

const discoveryOutputSchemaText = `{
  "type": "object",
  "properties": {
    "raydium": { "type": ["object", "array"] },
    "meteora": { "type": ["object", "array"] }
  }
}`

var (
	compilerOutputSchema  = jsonschema.MustCompileString("compiler-output.json", compilerOutputSchemaText)
	discoveryOutputSchema = jsonschema.MustCompileString("discovery-output.json", discoveryOutputSchemaText)
)
