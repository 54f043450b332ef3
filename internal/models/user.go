package models

import (
	"github.com/uptrace/bun"
)

// User is a staff account. Password is kept as plain text to stay compatible
// with existing usuarios rows.
type User struct {
	bun.BaseModel `bun:"table:usuarios"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Username string `bun:"usuario,unique"`
	Password string `bun:"password"`
}
