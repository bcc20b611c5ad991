package cube

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrMissingKey = errors.New("cube: header key missing")
	ErrKeyType    = errors.New("cube: header value has wrong type")
)

// BlankValue is the value written to WCS keys that are cleared rather than
// removed.
const BlankValue = ""

// Card is one header keyword record.
type Card struct {
	Key     string
	Value   any
	Comment string
}

// Header is an ordered, immutable list of cards. Keys are case-insensitive
// and stored upper-case. Methods that change a Header return a new value and
// leave the receiver untouched, so one template can feed several cubes.
type Header struct {
	cards []Card
}

// NewHeader builds a Header from cards. A repeated key keeps its first
// position and takes the last value.
func NewHeader(cards ...Card) Header {
	var h Header
	for _, c := range cards {
		h = h.SetCard(c)
	}
	return h
}

// Len returns the number of cards.
func (h Header) Len() int { return len(h.cards) }

// Cards returns a copy of the cards in order.
func (h Header) Cards() []Card { return append([]Card(nil), h.cards...) }

// Keys returns the keys in order.
func (h Header) Keys() []string {
	keys := make([]string, len(h.cards))
	for i, c := range h.cards {
		keys[i] = c.Key
	}
	return keys
}

func (h Header) index(key string) int {
	key = strings.ToUpper(key)
	for i, c := range h.cards {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// Has reports whether key is present.
func (h Header) Has(key string) bool { return h.index(key) >= 0 }

// Get returns the card for key.
func (h Header) Get(key string) (Card, bool) {
	i := h.index(key)
	if i < 0 {
		return Card{}, false
	}
	return h.cards[i], true
}

// Value returns the value for key, or nil when absent.
func (h Header) Value(key string) any {
	c, ok := h.Get(key)
	if !ok {
		return nil
	}
	return c.Value
}

// Int returns an integer-valued key. Float values with no fractional part
// are accepted.
func (h Header) Int(key string) (int, error) {
	c, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, strings.ToUpper(key))
	}
	switch v := c.Value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("%w: %s=%v (%T) is not an integer", ErrKeyType, c.Key, c.Value, c.Value)
}

// Float returns a numeric key as float64.
func (h Header) Float(key string) (float64, error) {
	c, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, strings.ToUpper(key))
	}
	switch v := c.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	}
	if i, err := h.Int(key); err == nil {
		return float64(i), nil
	}
	return 0, fmt.Errorf("%w: %s=%v (%T) is not numeric", ErrKeyType, c.Key, c.Value, c.Value)
}

// String returns a string-valued key.
func (h Header) String(key string) (string, error) {
	c, ok := h.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, strings.ToUpper(key))
	}
	s, ok := c.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s=%v (%T) is not a string", ErrKeyType, c.Key, c.Value, c.Value)
	}
	return s, nil
}

// Clone returns an independent copy.
func (h Header) Clone() Header { return Header{cards: h.Cards()} }

// Set returns a copy with key set to value. An existing card keeps its
// position and comment; a new card is appended.
func (h Header) Set(key string, value any) Header {
	if i := h.index(key); i >= 0 {
		c := h.cards[i]
		c.Value = value
		return h.SetCard(c)
	}
	return h.SetCard(Card{Key: key, Value: value})
}

// SetCard returns a copy with c replacing the card of the same key, or
// appended when the key is new.
func (h Header) SetCard(c Card) Header {
	c.Key = strings.ToUpper(c.Key)
	out := h.Cards()
	if i := h.index(c.Key); i >= 0 {
		out[i] = c
	} else {
		out = append(out, c)
	}
	return Header{cards: out}
}

// Delete returns a copy without the given keys. Absent keys are ignored.
func (h Header) Delete(keys ...string) Header {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[strings.ToUpper(k)] = true
	}
	out := make([]Card, 0, len(h.cards))
	for _, c := range h.cards {
		if !drop[c.Key] {
			out = append(out, c)
		}
	}
	return Header{cards: out}
}
