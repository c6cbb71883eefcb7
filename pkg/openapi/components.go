package openapi

import "maps"

// Components holds the schemas and responses shared across operations.
type Components struct {
	Schemas   map[string]*Schema   `json:"schemas,omitempty"`
	Responses map[string]*Response `json:"responses,omitempty"`
}

func errorBody(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Error")},
		},
	}
}

// NewComponents creates Components with the error schema, the page
// envelope parameters and the shared error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": Object(map[string]*Schema{
				"error": {Type: "string", Description: "Error message"},
			}, "error"),
		},
		Responses: map[string]*Response{
			"BadRequest":         errorBody("Invalid request parameters or body"),
			"NotFound":           errorBody("Resource not found"),
			"PayloadTooLarge":    errorBody("Request body exceeds the configured limit"),
			"ServiceUnavailable": errorBody("Record store unavailable"),
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
