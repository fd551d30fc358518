package arrows

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Value is one shot's recorded result. The zero value means no shot has been recorded.
type Value uint8

const (
	Unset Value = iota
	Miss
	One
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	X
)

// Alphabet lists the display tokens in quick-entry order.
var Alphabet = []string{"M", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "X"}

var byToken = map[string]Value{
	"M":  Miss,
	"1":  One,
	"2":  Two,
	"3":  Three,
	"4":  Four,
	"5":  Five,
	"6":  Six,
	"7":  Seven,
	"8":  Eight,
	"9":  Nine,
	"10": Ten,
	"X":  X,
}

// ErrInvalidToken is returned by Parse for tokens outside the alphabet.
var ErrInvalidToken = errors.New("arrow value not in alphabet")

// Parse converts a display token into a Value. Tokens are case-insensitive for M and X.
func Parse(token string) (Value, error) {
	v, ok := byToken[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return Unset, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return v, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(token string) Value {
	v, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseAll converts a list of display tokens, failing on the first invalid one.
func ParseAll(tokens []string) ([]Value, error) {
	out := make([]Value, len(tokens))
	for i, t := range tokens {
		v, err := Parse(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ValueOf returns the scoring value of a display token. It never fails:
// unknown tokens fall back to a numeric parse and then to 0.
func ValueOf(display string) int {
	if v, err := Parse(display); err == nil {
		return v.Points()
	}
	n, err := strconv.Atoi(strings.TrimSpace(display))
	if err != nil || n < 0 || n > 10 {
		return 0
	}
	return n
}

// IsX reports whether the token is an inner ten.
func IsX(display string) bool {
	v, err := Parse(display)
	return err == nil && v == X
}

// IsTen reports whether the token scores ten, X included.
func IsTen(display string) bool {
	v, err := Parse(display)
	return err == nil && v.IsTen()
}

// Points is the numeric scoring value; Unset and Miss both score 0.
func (v Value) Points() int {
	switch {
	case v == X:
		return 10
	case v >= One && v <= Ten:
		return int(v - Miss)
	default:
		return 0
	}
}

// IsSet reports whether a shot has been recorded.
func (v Value) IsSet() bool { return v != Unset && v <= X }

// IsTen reports whether the value counts towards the ten-count.
func (v Value) IsTen() bool { return v == Ten || v == X }

// IsNine reports whether the value is a nine.
func (v Value) IsNine() bool { return v == Nine }

// String returns the display token, or an empty string when unset.
func (v Value) String() string {
	switch {
	case v == Miss:
		return "M"
	case v == X:
		return "X"
	case v >= One && v <= Ten:
		return strconv.Itoa(int(v - Miss))
	default:
		return ""
	}
}

// MarshalJSON encodes the display token, or null when unset.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts a display token, a bare number (0 meaning a miss) or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Unset
		return nil
	}
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		var n int
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		if n == 0 {
			token = "M"
		} else {
			token = strconv.Itoa(n)
		}
	}
	if token == "" {
		*v = Unset
		return nil
	}
	parsed, err := Parse(token)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Tokens renders values as display tokens; unset slots become empty strings.
func Tokens(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
