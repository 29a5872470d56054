package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type RecipeEntry struct {
	Key      string
	Quantity int
}

// Recipe maps an ingredient name key to the quantity consumed per unit sold.
// Entry order is significant: substitution ties go to the earliest entry.
type Recipe []RecipeEntry

// Set replaces the quantity of an existing key in place or appends a new entry.
func (r Recipe) Set(key string, quantity int) Recipe {
	for i := range r {
		if r[i].Key == key {
			r[i].Quantity = quantity
			return r
		}
	}
	return append(r, RecipeEntry{Key: key, Quantity: quantity})
}

func (r Recipe) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(e.Quantity))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Recipe) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding recipe: %w", err)
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("recipe must be a JSON object")
	}

	entries := Recipe{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding recipe key: %w", err)
		}
		key, _ := keyTok.(string)

		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("recipe entry %q: %w", key, err)
		}
		qty, err := parseQuantity(n)
		if err != nil {
			return fmt.Errorf("recipe entry %q: %w", key, err)
		}
		entries = entries.Set(key, qty)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding recipe: %w", err)
	}

	*r = entries
	return nil
}

func parseQuantity(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("quantity %s is not a whole number", n)
	}
	return int(f), nil
}
