package models

// OutboundMessageRequest represents requests to send a WhatsApp message through the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// AddItemRequest is the body of the add form. A missing quantity adds one unit.
type AddItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity *int   `json:"quantity"`
}

// FormInputRequest mirrors the add form fields while the user types.
type FormInputRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// SetQuantityRequest overwrites the quantity of one item.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// QueryRequest updates the search box.
type QueryRequest struct {
	Query string `json:"query"`
}
