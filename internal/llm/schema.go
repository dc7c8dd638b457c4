package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a JSON schema from the zero value of T
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// SchemaJSON renders the schema for T as indented JSON for embedding in prompts
func SchemaJSON[T any]() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema[T](), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(data), nil
}

// BuildStructuredPrompt joins task instructions, the JSON schema the answer must
// satisfy, and the input context into one prompt.
func BuildStructuredPrompt(instructions, schemaJSON, input string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON that satisfies this JSON Schema:\n")
	sb.WriteString(schemaJSON)
	sb.WriteString("\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Use null for anything the source does not state. Do not invent details.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString(strings.TrimSpace(input))
	sb.WriteString("\n")

	return sb.String()
}
