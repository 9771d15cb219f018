package models

// User holds the narrow view of the user collection this service reads.
// Account management lives in the marketplace API; the chat core only
// checks that a counterparty exists.
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
}

// UserDetails holds the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Name     string `json:"name" bson:"name"`
	Username string `json:"username" bson:"username"`
}

// Principal is the identity attached to a verified credential. It is
// derived per connection or per request and never persisted.
type Principal struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}
