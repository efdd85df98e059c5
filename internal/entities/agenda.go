package entities

// AgendaItem is one occurrence on a professional's dashboard. OpenSlots is
// only set on the available list: the number of unclaimed slots matching the
// professional's role.
type AgendaItem struct {
	OccurrenceResponse
	OpenSlots int `json:"open_slots,omitempty"`
}

// AgendaResponse partitions eligible occurrences for one professional. An
// occurrence never appears in both lists.
type AgendaResponse struct {
	Confirmed []AgendaItem `json:"confirmed"`
	Available []AgendaItem `json:"available"`
}
