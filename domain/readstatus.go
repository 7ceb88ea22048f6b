package domain

// ReadStatus is one row of the per-recipient read ledger. A row is
// created for every (message, recipient) pair where recipient differs
// from the sender, at the moment the message is appended.
//
// IsRead only ever transitions false -> true.
type ReadStatus struct {
	MessageID int64
	RoomID    RoomID
	Recipient Identity
	IsRead    bool
}
