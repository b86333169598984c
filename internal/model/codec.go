package model

import (
	"encoding/json"
	"time"
)

func EncodeItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// DecodeItems never fails: anything that is not a JSON array of objects
// decodes to an empty slice.
func DecodeItems(raw any) []Item {
	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	case string:
		data = []byte(v)
	default:
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return []Item{}
	}
	return items
}

func DecodeOrder(row OrderRow) Order {
	return Order{
		ID:         row.ID,
		ClientID:   row.ClientID,
		Items:      DecodeItems(row.Items),
		TotalItems: row.TotalItems,
		Status:     row.Status,
		CreatedAt:  formatCreatedAt(row.CreatedAt),
	}
}

func formatCreatedAt(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339Nano)
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}
