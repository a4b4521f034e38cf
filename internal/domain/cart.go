package domain

import "sort"

type CartItem struct {
	ProductID int64
	Quantity  int
}

// SortCartItems orders items by product id so row locks are always taken in
// the same order.
func SortCartItems(items []CartItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
}
