package domain

// Button is a single multiple-choice option on a button card. Payload is
// a routing tag; it is never shown to the user.
type Button struct {
	Title   string
	Payload string
}

// CardItem is one element of a generic (carousel) card
type CardItem struct {
	Title    string
	Subtitle string
	ImageURL string
}
