package mcp

// contextProperties are the optional surrounding-context arguments shared by
// the search, commit and translate tools.
var contextProperties = map[string]Property{
	"sceneType":         {Type: "string", Description: "Scene type of the fragment, e.g. dialogue, action, description"},
	"chapterNumber":     {Type: "number", Description: "Chapter number the fragment comes from"},
	"chapterTitle":      {Type: "string", Description: "Chapter title"},
	"previousParagraph": {Type: "string", Description: "Paragraph before the fragment"},
	"nextParagraph":     {Type: "string", Description: "Paragraph after the fragment"},
}

func withContext(props map[string]Property) map[string]Property {
	for k, v := range contextProperties {
		props[k] = v
	}
	return props
}

var characterSchema = &Schema{
	Type: "object",
	Properties: map[string]Property{
		"nameOriginal":   {Type: "string", Description: "Name as written in the source text"},
		"nameTranslated": {Type: "string", Description: "Agreed rendering in the target language"},
		"description":    {Type: "string"},
		"aliases":        {Type: "array", Items: &Schema{Type: "string"}},
	},
	Required: []string{"nameOriginal", "nameTranslated"},
}

// ToolDefinitions returns the MCP tool definitions for the translation memory.
func ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name: "tm_search",
			Description: "Find previously translated fragments similar to a source text. " +
				"Scores combine word overlap with surrounding context. " +
				"Use before translating to keep terminology and phrasing consistent.",
			InputSchema: Schema{
				Type: "object",
				Properties: withContext(map[string]Property{
					"query":  {Type: "string", Description: "Source-language fragment to look up"},
					"workId": {Type: "string", Description: "Restrict to one work and include its characters and glossary"},
					"threshold": {Type: "number", Description: "Minimum combined score 0.0-1.0 (default 0.8)",
						Default: 0.8},
					"maxResults": {Type: "number", Description: "Maximum matches to return (default 5)",
						Default: 5},
				}),
				Required: []string{"query"},
			},
		},
		{
			Name: "tm_commit",
			Description: "Record a finished translation. Committing the same source text again " +
				"only raises its frequency; the first translation stays canonical.",
			InputSchema: Schema{
				Type: "object",
				Properties: withContext(map[string]Property{
					"originalText":   {Type: "string", Description: "Source-language fragment"},
					"translatedText": {Type: "string", Description: "Its translation"},
					"workId":         {Type: "string", Description: "Work the fragment belongs to"},
					"tags": {Type: "array", Description: "Free-form labels",
						Items: &Schema{Type: "string"}},
				}),
				Required: []string{"originalText", "translatedText"},
			},
		},
		{
			Name:        "tm_characters",
			Description: "List the character name mappings registered for a work.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"title": {Type: "string", Description: "Work title"},
				},
				Required: []string{"title"},
			},
		},
		{
			Name:        "tm_get_work",
			Description: "Get the full context of a work: characters, glossary, genre and translation style.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"title": {Type: "string", Description: "Work title"},
				},
				Required: []string{"title"},
			},
		},
		{
			Name: "tm_set_work",
			Description: "Create or replace the context of a work. " +
				"Replaces the whole record, so pass every character and glossary term to keep.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"title": {Type: "string", Description: "Work title"},
					"characters": {Type: "array", Description: "Character name mappings",
						Items: characterSchema},
					"glossary": {Type: "object", Description: "Fixed term translations, source term to target term",
						AdditionalProperties: &Schema{Type: "string"}},
					"genre":            {Type: "string"},
					"translationStyle": {Type: "string", Description: "Guidance for tone and register"},
				},
				Required: []string{"title"},
			},
		},
		{
			Name: "tm_translate",
			Description: "Translate text. Reuses an exact memory hit when one exists, " +
				"otherwise asks the configured provider with memory suggestions as hints, " +
				"applies the work glossary and records the result.",
			InputSchema: Schema{
				Type: "object",
				Properties: withContext(map[string]Property{
					"text":       {Type: "string", Description: "Text to translate"},
					"targetLang": {Type: "string", Description: "Target language code, e.g. en"},
					"sourceLang": {Type: "string", Description: "Source language code (optional)"},
					"workId":     {Type: "string", Description: "Work the text belongs to"},
					"provider":   {Type: "string", Description: "Preferred provider name"},
					"noCommit": {Type: "boolean", Description: "Do not record the result in memory",
						Default: false},
				}),
				Required: []string{"text", "targetLang"},
			},
		},
	}
}
