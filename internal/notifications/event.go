package notifications

import "strconv"

// Kind names what happened.
type Kind string

const (
	KindUserRegistered         Kind = "user.registered"
	KindUserLoggedIn           Kind = "user.logged_in"
	KindPasswordResetRequested Kind = "password.reset_requested"
	KindDataCreated            Kind = "data.created"
	KindDataUpdated            Kind = "data.updated"
	KindDataDeleted            Kind = "data.deleted"
)

// Actor is the user an event is about or performed by.
type Actor struct {
	ID       uint64
	Username string
	Email    string
}

func (a Actor) IDString() string {
	return strconv.FormatUint(a.ID, 10)
}

// Origin describes the browser request that caused an event.
type Origin struct {
	IP        string
	UserAgent string
}

// Event is handed to every hook after the change it describes has committed.
type Event struct {
	Kind Kind
	// Entity is the display name of the record kind, e.g. 作物.
	Entity string
	// Subject labels the affected record.
	Subject    string
	Actor      Actor
	Origin     Origin
	ResetToken string
}
