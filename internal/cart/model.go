package cart

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Shashankesi/Threadly/internal/money"
)

// DefaultSize is used when a product is added without a size selection.
const DefaultSize = "One Size"

// Product is what the listing hands to Add. Price is the display string that
// was shown next to the product.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
}

// Item is one line of the cart, keyed by (ID, Size).
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`

	unitPrice money.Amount
}

// UnitPrice is the parsed form of Price.
func (it Item) UnitPrice() money.Amount { return it.unitPrice }

// LineTotal is UnitPrice × Quantity.
func (it Item) LineTotal() money.Amount { return it.unitPrice.Times(it.Quantity) }

func (it Item) matches(id, size string) bool {
	return it.ID == id && it.Size == size
}

// UnmarshalJSON tolerates the loose shapes found in stored carts: numeric
// ids and quantities written as strings.
func (it *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	aux := struct {
		ID       json.RawMessage `json:"id"`
		Quantity json.RawMessage `json:"quantity"`
		*alias
	}{alias: (*alias)(it)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := scalarText(aux.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	it.ID = id

	qty, err := scalarText(aux.Quantity)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	if qty == "" {
		it.Quantity = 0
	} else if it.Quantity, err = strconv.Atoi(qty); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}

	it.unitPrice, err = money.Parse(it.Price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	return nil
}

// scalarText returns a JSON string's content or a JSON number's literal text.
func scalarText(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) {
		var out string
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", err
		}
		return strings.TrimSpace(out), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
