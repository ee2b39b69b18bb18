package notify

import "time"

// Notification is an in-app message row. The recipient id is stored twice
// (user_id and recipient_id); consumers read either column.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Recipient identifies one fan-out target.
type Recipient struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Options selects the optional delivery channels. Both default to off;
// in-app rows are always written.
type Options struct {
	Email    bool
	WhatsApp bool
	Link     string
}

// Result reports what the fan-out produced.
type Result struct {
	Created       int
	EmailsQueued  int
	WhatsAppLinks []string
}
