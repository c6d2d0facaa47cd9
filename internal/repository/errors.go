// Package repository implements persistence on MySQL.  Lookups that find
// nothing return errors wrapping booking.ErrNotFound; the sentinels below
// cover the remaining cases handlers need to tell apart.
package repository

import (
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/room-reservation/internal/booking"
)

// ErrEmailExists is returned when registering an email that is taken.
// Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrRoomExists is returned when creating a room whose number is taken.
var ErrRoomExists = booking.ErrRoomExists

// ErrInvalidCredentials is returned when an email/password pair does not
// match an active user.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAlreadyLinked is returned when a chat account is already linked.
var ErrAlreadyLinked = errors.New("chat account already linked")

// ErrNotLinked is returned when a chat account has no linked user.
var ErrNotLinked = errors.New("chat account not linked")

// ErrTokenInvalid is returned for unknown, expired or revoked refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")

// isDuplicate reports a MySQL unique key violation (error 1062).
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == 1062
    }
    return err != nil && strings.Contains(err.Error(), "1062")
}

// isMissingReference reports a MySQL foreign key violation on insert
// (error 1452).
func isMissingReference(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == 1452
    }
    return false
}
