package entities

// OccurrenceEmailData feeds the notification templates sent to crew members
// when an occurrence they are confirmed on changes state.
type OccurrenceEmailData struct {
	ProfessionalName string
	OccurrenceNumber string
	Kind             string
	DateFormatted    string
	DepartureTime    string
	Location         string
	Status           string
	CurrentYear      int
}
