package service

import (
	"fmt"
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	"ambudispatch/internal/eventbus"

	"github.com/rs/zerolog"
)

// NotifyService consumes domain events and informs the crew. It is the only
// piece that knows about delivery channels; the dispatch core just publishes
// events on the bus.
type NotifyService struct {
	Occurrences   OccurrenceStore
	Professionals ProfessionalStore
	Log           zerolog.Logger
}

func NewNotifyService(occurrences OccurrenceStore, professionals ProfessionalStore, log zerolog.Logger) *NotifyService {
	return &NotifyService{Occurrences: occurrences, Professionals: professionals, Log: log}
}

// Run consumes the bus until it is closed. Call in a goroutine.
func (s *NotifyService) Run(bus eventbus.EventBus) {
	ch := bus.Subscribe()
	for e := range ch {
		switch ev := e.(type) {
		case eventbus.OccurrenceConfirmed:
			s.notifyCrew(ev.OccurrenceID, "confirmed", true)
		case eventbus.OccurrenceStatusChanged:
			if ev.To == db.StatusInProgress {
				s.notifyCrew(ev.OccurrenceID, "dispatched", false)
			}
		}
	}
}

// notifyCrew emails every confirmed crew member, and additionally texts them
// for time-critical updates.
func (s *NotifyService) notifyCrew(occurrenceID int64, status string, emailOnly bool) {
	occ, err := s.Occurrences.GetOccurrence(occurrenceID)
	if err != nil {
		s.Log.Error().Err(err).Int64("occurrence_id", occurrenceID).Msg("notify: load occurrence")
		return
	}
	slots, err := s.Occurrences.ListSlots(occurrenceID)
	if err != nil {
		s.Log.Error().Err(err).Int64("occurrence_id", occurrenceID).Msg("notify: load slots")
		return
	}

	var holderIDs []int64
	for _, slot := range slots {
		if slot.Confirmed && slot.HolderID.Valid {
			holderIDs = append(holderIDs, slot.HolderID.Int64)
		}
	}
	crew, err := s.Professionals.ListByIDs(holderIDs)
	if err != nil {
		s.Log.Error().Err(err).Int64("occurrence_id", occurrenceID).Msg("notify: load crew")
		return
	}

	for _, member := range crew {
		data := entities.OccurrenceEmailData{
			ProfessionalName: member.Name,
			OccurrenceNumber: occ.Number,
			Kind:             string(occ.Kind),
			DateFormatted:    occ.Date.Format("02 Jan 2006"),
			DepartureTime:    occ.DepartureTime,
			Location:         occ.Location,
			Status:           status,
			CurrentYear:      time.Now().Year(),
		}
		subject, plainBody, htmlBody := occurrenceEmail(data)

		go func(toEmail, toName string) {
			if err := SendEmailWithSendGrid(toEmail, toName, subject, plainBody, htmlBody); err != nil {
				s.Log.Error().Err(err).Str("number", occ.Number).Msg("notify: email failed")
			}
		}(member.Email, member.Name)

		if !emailOnly && member.Phone != "" {
			sms := fmt.Sprintf("Dispatch: occurrence %s is %s. Departure %s at %s.",
				occ.Number, status, occ.DepartureTime, occ.Location)
			go func(phone string) {
				if err := SendSMS(phone, sms); err != nil {
					s.Log.Error().Err(err).Str("number", occ.Number).Msg("notify: sms failed")
				}
			}(member.Phone)
		}
	}
}

func occurrenceEmail(data entities.OccurrenceEmailData) (subject, plain, html string) {
	subject = fmt.Sprintf("Occurrence %s is %s", data.OccurrenceNumber, data.Status)
	plain = fmt.Sprintf(
		"Hello %s,\n\nOccurrence %s (%s) is now %s.\n\n"+
			"Date: %s\n"+
			"Departure: %s\n"+
			"Location: %s\n\n"+
			"Dispatch Central.",
		data.ProfessionalName, data.OccurrenceNumber, data.Kind, data.Status,
		data.DateFormatted, data.DepartureTime, data.Location,
	)
	html = fmt.Sprintf(
		"<p>Hello %s,</p><p>Occurrence <strong>%s</strong> (%s) is now <strong>%s</strong>.</p>"+
			"<ul><li>Date: %s</li><li>Departure: %s</li><li>Location: %s</li></ul>"+
			"<p>Dispatch Central &copy; %d</p>",
		data.ProfessionalName, data.OccurrenceNumber, data.Kind, data.Status,
		data.DateFormatted, data.DepartureTime, data.Location, data.CurrentYear,
	)
	return subject, plain, html
}
