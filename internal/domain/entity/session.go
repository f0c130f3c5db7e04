package entity

import "time"

// ClientSession is the persisted identity of this client
type ClientSession struct {
	ClientKey string
	UserID    string
	CreatedAt time.Time
	LastSeen  time.Time
}
