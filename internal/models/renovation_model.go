package models

import (
	"net/url"
	"strings"
	"time"

	"refugios-backend-go/internal/clock"
)

// AnonymizedCreatorUID is the sentinel written over creator_uid when the
// creator's account is deleted. The renovation document itself survives.
const AnonymizedCreatorUID = "deleted-user"

// Renovation state derived from today's date. There is no stored status field.
const (
	StateUpcoming   = "upcoming"
	StateInProgress = "in_progress"
	StatePast       = "past"
)

// Renovation represents a time-bounded renovation event at a refuge.
// Dates are civil dates in the platform zone, stored as "YYYY-MM-DD" strings
// so the (refugeId, iniDate) composite index orders them chronologically.
type Renovation struct {
	ID              string    `json:"id" firestore:"-"` // Document ID, auto-generated
	CreatorUID      string    `json:"creator_uid" firestore:"creatorUid"`
	RefugeID        string    `json:"refuge_id" firestore:"refugeId"`
	IniDate         string    `json:"ini_date" firestore:"iniDate"`
	FinDate         string    `json:"fin_date" firestore:"finDate"`
	Description     string    `json:"description" firestore:"description"`
	MaterialsNeeded string    `json:"materials_needed,omitempty" firestore:"materialsNeeded,omitempty"`
	GroupLink       string    `json:"group_link" firestore:"groupLink"`
	ParticipantsUID []string  `json:"participants_uids" firestore:"participantsUids"`
	ExpelledUID     []string  `json:"expelled_uids" firestore:"expelledUids"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt,serverTimestamp"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt,serverTimestamp"`
}

// Validate checks the creation-time invariants against today's civil date.
// It returns a ValidationError listing every violated field.
func (r *Renovation) Validate(today string) error {
	fields := map[string]string{}

	if strings.TrimSpace(r.RefugeID) == "" {
		fields["refuge_id"] = "refuge_id is required"
	}
	if strings.TrimSpace(r.Description) == "" {
		fields["description"] = "description must not be empty"
	}
	if !ValidAbsoluteURL(r.GroupLink) {
		fields["group_link"] = "group_link must be an absolute URL"
	}

	iniOK := clock.ValidDate(r.IniDate)
	finOK := clock.ValidDate(r.FinDate)
	if !iniOK {
		fields["ini_date"] = "ini_date must be a YYYY-MM-DD date"
	}
	if !finOK {
		fields["fin_date"] = "fin_date must be a YYYY-MM-DD date"
	}
	if iniOK && finOK {
		if err := ValidateDateRange(r.IniDate, r.FinDate, today); err != nil {
			ve := err.(*ValidationError)
			for k, v := range ve.Fields {
				fields[k] = v
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateDateRange enforces ini < fin and ini >= today for an effective date
// pair. Both dates are assumed well-formed.
func ValidateDateRange(ini, fin, today string) error {
	fields := map[string]string{}
	if ini >= fin {
		fields["ini_date"] = "ini_date must be strictly before fin_date"
	}
	if ini < today {
		fields["ini_date"] = "ini_date must not be in the past"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// OverlapsRange reports whether the closed interval [ini, fin] intersects the
// renovation's own [IniDate, FinDate] closed interval.
func (r *Renovation) OverlapsRange(ini, fin string) bool {
	if r.IniDate <= ini && ini <= r.FinDate {
		return true
	}
	if r.IniDate <= fin && fin <= r.FinDate {
		return true
	}
	return ini <= r.IniDate && fin >= r.FinDate
}

// State derives the temporal state of the renovation for today's date.
func (r *Renovation) State(today string) string {
	switch {
	case today < r.IniDate:
		return StateUpcoming
	case today > r.FinDate:
		return StatePast
	default:
		return StateInProgress
	}
}

// IsActive reports whether the renovation is returned by "active" queries,
// i.e. it has not started yet or starts today.
func (r *Renovation) IsActive(today string) bool {
	return r.IniDate >= today
}

// HasParticipant reports whether uid is currently on the roster.
func (r *Renovation) HasParticipant(uid string) bool {
	for _, p := range r.ParticipantsUID {
		if p == uid {
			return true
		}
	}
	return false
}

// IsExpelled reports whether uid was expelled by the creator. Expulsion is
// permanent; an expelled uid can never re-join.
func (r *Renovation) IsExpelled(uid string) bool {
	for _, e := range r.ExpelledUID {
		if e == uid {
			return true
		}
	}
	return false
}

// ValidationError carries per-field validation messages, surfaced to clients
// in the "details" part of the error body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, field+": "+msg)
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// ValidAbsoluteURL reports whether raw parses as an absolute URL with a host,
// the requirement for group_link.
func ValidAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
