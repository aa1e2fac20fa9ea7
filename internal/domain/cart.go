package domain

import (
	"time"
)

type Cart struct {
	Lines []CartLine
}

// CartItem is a stored cart entry: a product reference and the accumulated quantity.
type CartItem struct {
	ProductID int64
	Quantity  int

	AddedAt time.Time
}

// CartLine is a CartItem resolved against the catalog.
type CartLine struct {
	Item    CartItem
	Product Product
}

func (l CartLine) Subtotal() Money {
	return l.Product.Price.Mul(l.Item.Quantity)
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Count is the total number of units in the cart.
func (c Cart) Count() int {
	var n int
	for _, l := range c.Lines {
		n += l.Item.Quantity
	}
	return n
}

func (c Cart) Subtotal() (Money, error) {
	total := ZeroMoney()

	for _, l := range c.Lines {
		var err error
		total, err = total.Add(l.Subtotal())
		if err != nil {
			return Money{}, err
		}
	}

	return total, nil
}

// Quantity returns the quantity held for productID, zero when absent.
func (c Cart) Quantity(productID int64) int {
	for _, l := range c.Lines {
		if l.Item.ProductID == productID {
			return l.Item.Quantity
		}
	}
	return 0
}
