package idwrap

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDWrap is the identifier of every persisted row. It is stored as a 16 byte
// BLOB and rendered as the canonical 26 character ULID text.
type IDWrap struct {
	ulid ulid.ULID
}

var ErrEmptyID = errors.New("idwrap: empty id")

func New(u ulid.ULID) IDWrap {
	return IDWrap{ulid: u}
}

func NewNow() IDWrap {
	return IDWrap{ulid: ulid.Make()}
}

func NewText(s string) (IDWrap, error) {
	if s == "" {
		return IDWrap{}, ErrEmptyID
	}
	u, err := ulid.Parse(s)
	if err != nil {
		return IDWrap{}, err
	}
	return IDWrap{ulid: u}, nil
}

func NewTextMust(s string) IDWrap {
	id, err := NewText(s)
	if err != nil {
		panic(err)
	}
	return id
}

func NewFromBytes(data []byte) (IDWrap, error) {
	var u ulid.ULID
	if err := u.UnmarshalBinary(data); err != nil {
		return IDWrap{}, err
	}
	return IDWrap{ulid: u}, nil
}

func NewFromBytesMust(data []byte) IDWrap {
	id, err := NewFromBytes(data)
	if err != nil {
		panic(err)
	}
	return id
}

func (id IDWrap) String() string {
	return id.ulid.String()
}

func (id IDWrap) Bytes() []byte {
	return id.ulid[:]
}

func (id IDWrap) Compare(other IDWrap) int {
	return id.ulid.Compare(other.ulid)
}

func (id IDWrap) IsZero() bool {
	return id.ulid == ulid.ULID{}
}

func (id IDWrap) Time() time.Time {
	return ulid.Time(id.ulid.Time())
}

// Equal reports whether two optional ids point at the same value. Two nil ids
// are equal; this is how the global partition compares to itself.
func Equal(a, b *IDWrap) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Compare(*b) == 0
}

func (id IDWrap) Value() (driver.Value, error) {
	return id.ulid[:], nil
}

func (id *IDWrap) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return id.ulid.UnmarshalBinary(v)
	case string:
		u, err := ulid.Parse(v)
		if err != nil {
			return err
		}
		id.ulid = u
		return nil
	case nil:
		return ErrEmptyID
	default:
		return fmt.Errorf("idwrap: cannot scan %T", value)
	}
}

func (id IDWrap) MarshalText() ([]byte, error) {
	return id.ulid.MarshalText()
}

func (id *IDWrap) UnmarshalText(data []byte) error {
	return id.ulid.UnmarshalText(data)
}
