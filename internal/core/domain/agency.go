package domain

import "time"

// Agency is a physical branch acting as departure or arrival point.
type Agency struct {
	ID      string `json:"id" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	Country string `json:"country" bson:"country"`
	City    string `json:"city" bson:"city"`
	Address string `json:"address" bson:"address"`
}

// Location renders the agency as a human readable place, used in tracking events.
func (a Agency) Location() string {
	return a.Name + ", " + a.City + ", " + a.Country
}

// AgencyClient links a sender to an agency they shipped from.
type AgencyClient struct {
	AgencyID  string    `bson:"agency_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}
