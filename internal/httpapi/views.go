package httpapi

import (
	"time"

	"github.com/nikolayk812/ecart-demo/internal/domain"
)

type productView struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Price       domain.Money `json:"price"`
	Stock       int          `json:"stock"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type productListView struct {
	Products []productView `json:"products"`
	Count    int           `json:"count"`
}

type cartLineView struct {
	ProductID   int64        `json:"productId"`
	ProductName string       `json:"productName"`
	UnitPrice   domain.Money `json:"unitPrice"`
	Quantity    int          `json:"quantity"`
	Subtotal    domain.Money `json:"subtotal"`
	AddedAt     time.Time    `json:"addedAt"`
}

type cartView struct {
	Items    []cartLineView `json:"items"`
	Subtotal domain.Money   `json:"subtotal"`
	Count    int            `json:"count"`
}

type lineItemView struct {
	ProductID   int64        `json:"productId"`
	ProductName string       `json:"productName"`
	Quantity    int          `json:"quantity"`
	UnitPrice   domain.Money `json:"unitPrice"`
	Subtotal    domain.Money `json:"subtotal"`
}

type orderView struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Items     []lineItemView `json:"items"`
	Total     domain.Money   `json:"total"`
	CreatedAt time.Time      `json:"createdAt"`
}

type orderListView struct {
	Orders []orderView `json:"orders"`
	Count  int         `json:"count"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductListView(products []domain.Product) productListView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	return productListView{Products: views, Count: len(views)}
}

func toCartView(cart domain.Cart) (cartView, error) {
	subtotal, err := cart.Subtotal()
	if err != nil {
		return cartView{}, err
	}

	items := make([]cartLineView, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, cartLineView{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.Price,
			Quantity:    l.Item.Quantity,
			Subtotal:    l.Subtotal(),
			AddedAt:     l.Item.AddedAt,
		})
	}

	return cartView{
		Items:    items,
		Subtotal: subtotal,
		Count:    cart.Count(),
	}, nil
}

func toOrderView(o domain.Order) orderView {
	items := make([]lineItemView, 0, len(o.Items))
	for _, li := range o.Items {
		items = append(items, lineItemView{
			ProductID:   li.ProductID,
			ProductName: li.ProductName,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Subtotal:    li.Subtotal(),
		})
	}

	return orderView{
		ID:        o.ID.String(),
		Status:    string(o.Status),
		Items:     items,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
	}
}

func toOrderListView(orders []domain.Order) orderListView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return orderListView{Orders: views, Count: len(views)}
}
