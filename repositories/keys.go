package repositories

import (
	"fmt"
	"strconv"

	"peerchat/domain"
)

// Key layout, one keyspace per concern:
//
//	msg:{room}:{id}        message payload, id zero-padded to 19 digits
//	                       so lexicographic order is id order
//	msgref:{id}            message id -> room, for lookups by id alone
//	member:{room}:{email}  room membership index (recipient resolution)
//	rs:{room}:{reader}:{id} read ledger row, value is one status byte
//
// Room ids and identities issued by the platform (uuids, emails) never
// contain ':'; the separators rely on that.
const (
	statusUnread byte = 0
	statusRead   byte = 1
)

func messageKey(roomID domain.RoomID, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", roomID, id))
}

func messagePrefix(roomID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", roomID))
}

func refKey(id int64) []byte {
	return []byte(fmt.Sprintf("msgref:%019d", id))
}

func memberKey(roomID domain.RoomID, identity domain.Identity) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", roomID, identity))
}

func memberPrefix(roomID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("member:%s:", roomID))
}

func statusKey(roomID domain.RoomID, reader domain.Identity, id int64) []byte {
	return []byte(fmt.Sprintf("rs:%s:%s:%019d", roomID, reader, id))
}

func statusPrefix(roomID domain.RoomID, reader domain.Identity) []byte {
	return []byte(fmt.Sprintf("rs:%s:%s:", roomID, reader))
}

// parseStatusID extracts the padded message id suffix of a read ledger
// key scanned under a known prefix.
func parseStatusID(key, prefix []byte) (int64, error) {
	return strconv.ParseInt(string(key[len(prefix):]), 10, 64)
}
