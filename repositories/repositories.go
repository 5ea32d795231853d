// Package repositories contains the gorm-backed persistence layer, one
// repository per aggregate. gorm.ErrRecordNotFound is translated to
// ErrNotFound at this boundary.
package repositories

import "errors"

var ErrNotFound = errors.New("record not found")
