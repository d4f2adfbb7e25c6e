package transport

import genai "google.golang.org/genai"

func stringProp() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: stringProp()}
}

// toolDeclarations mirrors the sparse Update shape. Entry IDs are
// echoed back by the model when it amends an existing entry; new
// entries omit them.
func toolDeclarations() []*genai.FunctionDeclaration {
	entry := func(props map[string]*genai.Schema) *genai.Schema {
		props["id"] = &genai.Schema{Type: genai.TypeString, Description: "ID of an existing entry being amended; omit for new entries"}
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeObject, Properties: props}}
	}

	draft := &genai.FunctionDeclaration{
		Name:        toolUpdateDraft,
		Description: "Updates the content of the CV draft with newly extracted information.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"personalInfo": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"fullName": stringProp(),
						"role":     stringProp(),
						"email":    stringProp(),
						"phone":    stringProp(),
						"location": stringProp(),
						"website":  stringProp(),
						"linkedin": stringProp(),
						"github":   stringProp(),
						"summary":  stringProp(),
					},
				},
				"experience": entry(map[string]*genai.Schema{
					"company":     stringProp(),
					"position":    stringProp(),
					"startDate":   stringProp(),
					"endDate":     stringProp(),
					"current":     {Type: genai.TypeBoolean},
					"location":    stringProp(),
					"description": stringProp(),
					"highlights":  stringArray(),
				}),
				"education": entry(map[string]*genai.Schema{
					"institution":  stringProp(),
					"degree":       stringProp(),
					"fieldOfStudy": stringProp(),
					"startDate":    stringProp(),
					"endDate":      stringProp(),
					"location":     stringProp(),
					"description":  stringProp(),
				}),
				"skills": entry(map[string]*genai.Schema{
					"name":     stringProp(),
					"level":    {Type: genai.TypeString, Enum: []string{"Beginner", "Intermediate", "Advanced", "Expert"}},
					"category": stringProp(),
				}),
				"projects": entry(map[string]*genai.Schema{
					"name":         stringProp(),
					"description":  stringProp(),
					"url":          stringProp(),
					"technologies": stringArray(),
				}),
				"languages": entry(map[string]*genai.Schema{
					"language": stringProp(),
					"fluency":  {Type: genai.TypeString, Enum: []string{"Native", "Fluent", "Conversational", "Basic"}},
				}),
				"certifications": entry(map[string]*genai.Schema{
					"name":   stringProp(),
					"issuer": stringProp(),
					"date":   stringProp(),
				}),
				"interests": stringArray(),
			},
		},
	}

	visual := &genai.FunctionDeclaration{
		Name:        toolUpdateVisual,
		Description: "Updates the visual configuration of the CV.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"templateId": {
					Type: genai.TypeString,
					Enum: []string{"professional", "harvard", "creative", "pure", "terminal", "care", "capital", "scholar"},
				},
				"colors": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"primary":    {Type: genai.TypeString, Description: "Hex color for main elements"},
						"accent":     {Type: genai.TypeString, Description: "Hex color for accents"},
						"background": stringProp(),
					},
				},
				"fonts": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"heading": stringProp(),
						"body":    stringProp(),
					},
				},
				"layout": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"density": {Type: genai.TypeString, Enum: []string{"compact", "standard", "relaxed"}},
					},
				},
			},
		},
	}

	phase := &genai.FunctionDeclaration{
		Name:        toolAdvancePhase,
		Description: "Marks the conversation as having reached a later stage.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"phase": {
					Type: genai.TypeString,
					Enum: []string{"welcome", "gathering", "refining", "ready"},
				},
			},
			Required: []string{"phase"},
		},
	}

	return []*genai.FunctionDeclaration{draft, visual, phase}
}
