package pdfsvc

import "context"

// defaultOwnerPassword locks editing on protected documents when the caller
// supplies only a user password.
const defaultOwnerPassword = "docpress-owner"

type watermarkRequest struct {
	DocumentID string          `json:"documentId"`
	Config     watermarkConfig `json:"config"`
}

type watermarkConfig struct {
	Text     string  `json:"text"`
	Type     string  `json:"type"`
	Position string  `json:"position"`
	Opacity  int     `json:"opacity"`
	Rotation int     `json:"rotation"`
	FontSize int     `json:"fontSize"`
	Color    string  `json:"color"`
	Scale    float64 `json:"scale"`
}

type flattenRequest struct {
	DocumentID string `json:"documentId"`
}

type protectRequest struct {
	DocumentID    string `json:"documentId"`
	UserPassword  string `json:"userPassword"`
	OwnerPassword string `json:"ownerPassword"`
}

// Watermark stamps diagonal text across every page and returns the result
// document handle.
func (c *Client) Watermark(ctx context.Context, docID, text string) (string, error) {
	req := watermarkRequest{
		DocumentID: docID,
		Config: watermarkConfig{
			Text:     text,
			Type:     "TEXT",
			Position: "CENTER",
			Opacity:  15,
			Rotation: -45,
			FontSize: 48,
			Color:    "#AAAAAA",
			Scale:    1.0,
		},
	}
	return c.runOperation(ctx, "watermark", "/api/documents/enhance/pdf-watermark", req)
}

// Flatten merges interactive annotations and form fields into the page
// content and returns the result document handle.
func (c *Client) Flatten(ctx context.Context, docID string) (string, error) {
	return c.runOperation(ctx, "flatten", "/api/documents/modify/pdf-flatten", flattenRequest{DocumentID: docID})
}

// Protect encrypts the document with the given user password and returns
// the result document handle.
func (c *Client) Protect(ctx context.Context, docID, userPassword string) (string, error) {
	req := protectRequest{
		DocumentID:    docID,
		UserPassword:  userPassword,
		OwnerPassword: defaultOwnerPassword,
	}
	return c.runOperation(ctx, "protect", "/api/documents/security/pdf-protect", req)
}
