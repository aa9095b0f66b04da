package models

import "time"

// NotificationTTL mirrors how long the page keeps a notification on screen.
const NotificationTTL = 6 * time.Second

// NotificationKind tells clients how to style a notification.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is the one-line outcome of the last operation.
type Notification struct {
	Message string           `json:"message"`
	Kind    NotificationKind `json:"kind"`
	At      time.Time        `json:"at"`
}

// ViewState is the presentation state of the inventory page. Transitions return a new
// value and never mutate the receiver.
type ViewState struct {
	FormOpen       bool          `json:"form_open"`
	FormName       string        `json:"form_name"`
	FormQuantity   int           `json:"form_quantity"`
	DetailsOpen    bool          `json:"details_open"`
	Selected       *Item         `json:"selected,omitempty"`
	Loading        bool          `json:"loading"`
	Query          string        `json:"query"`
	Notification   *Notification `json:"notification,omitempty"`
	PendingRemoval string        `json:"pending_removal,omitempty"`
}

// NewViewState returns the initial page state.
func NewViewState() ViewState {
	return ViewState{FormQuantity: 1}
}

// WithFormInput records what the user typed into the add form.
func (v ViewState) WithFormInput(name string, quantity int) ViewState {
	v.FormName = name
	v.FormQuantity = quantity
	return v
}

// OpenForm shows the add form.
func (v ViewState) OpenForm() ViewState {
	v.FormOpen = true
	return v
}

// CloseForm hides the form and resets its inputs.
func (v ViewState) CloseForm() ViewState {
	v.FormOpen = false
	v.FormName = ""
	v.FormQuantity = 1
	return v
}

// WithLoading sets the loading indicator.
func (v ViewState) WithLoading(loading bool) ViewState {
	v.Loading = loading
	return v
}

// WithQuery sets the search text.
func (v ViewState) WithQuery(query string) ViewState {
	v.Query = query
	return v
}

// ClearQuery empties the search text.
func (v ViewState) ClearQuery() ViewState {
	v.Query = ""
	return v
}

// Select opens the details view for a copy of item.
func (v ViewState) Select(item Item) ViewState {
	selected := item
	v.Selected = &selected
	v.DetailsOpen = true
	return v
}

// ClearSelection closes the details view.
func (v ViewState) ClearSelection() ViewState {
	v.Selected = nil
	v.DetailsOpen = false
	return v
}

// Notify replaces the current notification.
func (v ViewState) Notify(kind NotificationKind, message string, at time.Time) ViewState {
	v.Notification = &Notification{Message: message, Kind: kind, At: at}
	return v
}

// DismissNotification hides the current notification.
func (v ViewState) DismissNotification() ViewState {
	v.Notification = nil
	return v
}

// RequestRemoval records the item awaiting a removal confirmation.
func (v ViewState) RequestRemoval(name string) ViewState {
	v.PendingRemoval = name
	return v
}

// CancelRemoval forgets the item awaiting confirmation.
func (v ViewState) CancelRemoval() ViewState {
	v.PendingRemoval = ""
	return v
}

// Expire drops a notification older than NotificationTTL.
func (v ViewState) Expire(now time.Time) ViewState {
	if v.Notification != nil && now.Sub(v.Notification.At) >= NotificationTTL {
		v.Notification = nil
	}
	return v
}
