package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ISODate is a calendar date in "2006-01-02" form. Postgres DATE
// columns come back from the driver as time.Time; scanning through this
// type keeps the wire form short instead of letting database/sql render
// the timestamp as RFC 3339.
type ISODate string

func (d ISODate) String() string { return string(d) }

func (d ISODate) Value() (driver.Value, error) { return string(d), nil }

func (d *ISODate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = ISODate(v.Format(DateLayout))
	case string:
		*d = ISODate(v)
	case []byte:
		*d = ISODate(v)
	default:
		return fmt.Errorf("unsupported date source %T", src)
	}
	return nil
}
