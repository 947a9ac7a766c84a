package domain

// TimeoffRecord is a read-only view of a timeoff request owned by the
// Base platform. This application never mutates these; fields not listed
// here are carried opaquely in Raw.
type TimeoffRecord struct {
	ID        string `json:"id"`
	Requester string `json:"requester"`
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason,omitempty"`

	Raw map[string]any `json:"-"`
}
