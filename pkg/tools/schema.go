package tools

// SchemaMap renders p as a JSON-schema fragment for providers that take free-form maps.
func SchemaMap(p *Property) map[string]any {
	m := map[string]any{"type": p.Type}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		m["enum"] = p.Enum
	}
	if p.Items != nil {
		m["items"] = SchemaMap(p.Items)
	}
	if len(p.Properties) > 0 {
		props := make(map[string]any, len(p.Properties))
		for name, child := range p.Properties {
			props[name] = SchemaMap(child)
		}
		m["properties"] = props
	}
	if p.AdditionalProperties != nil {
		m["additionalProperties"] = SchemaMap(p.AdditionalProperties)
	}
	return m
}

// PropertiesMap renders every property of s with SchemaMap.
func (s *InputSchema) PropertiesMap() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name := range s.Properties {
		prop := s.Properties[name]
		props[name] = SchemaMap(&prop)
	}
	return props
}

// ObjectSchema returns the full object schema, including "type" and "required".
func (s *InputSchema) ObjectSchema() map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": s.PropertiesMap(),
	}
	if len(s.Required) > 0 {
		schema["required"] = s.Required
	}
	return schema
}
