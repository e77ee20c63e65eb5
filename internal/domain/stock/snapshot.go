package stock

import "sort"

// Snapshot is the last-known state of every monitored product, keyed by alias.
// A run loads one snapshot, fetches a fresh one and replaces the old
// wholesale; snapshots are never partially mutated.
type Snapshot map[string]Product

// SnapshotOf builds a snapshot from a fetched product list.
// Products without an alias cannot be tracked between runs and are dropped.
func SnapshotOf(products []Product) Snapshot {
	snapshot := make(Snapshot, len(products))
	for _, product := range products {
		if product.Alias == "" {
			continue
		}

		snapshot[product.Alias] = product
	}

	return snapshot
}

// InStockCount returns how many products in the snapshot are purchasable.
func (s Snapshot) InStockCount() int {
	count := 0

	for _, product := range s {
		if product.InStock() {
			count++
		}
	}

	return count
}

// Diff classifies per-product transitions between two snapshots.
//
// Only products present in both snapshots can produce a signal: the first
// observation of an alias never fires a notification, so a cold start (or a
// snapshot lost to corruption) cannot spam alerts for everything currently
// on the shelf. Products that disappeared from current are dropped silently.
//
// Output order is sorted by alias so results are deterministic for a given
// pair of snapshots.
func Diff(previous, current Snapshot) (newlyInStock, newlyOutOfStock []Product) {
	aliases := make([]string, 0, len(current))
	for alias := range current {
		aliases = append(aliases, alias)
	}

	sort.Strings(aliases)

	for _, alias := range aliases {
		currentProduct := current[alias]

		previousProduct, seen := previous[alias]
		if !seen {
			continue
		}

		wasInStock := previousProduct.InStock()
		isInStock := currentProduct.InStock()

		switch {
		case !wasInStock && isInStock:
			newlyInStock = append(newlyInStock, currentProduct)
		case wasInStock && !isInStock:
			newlyOutOfStock = append(newlyOutOfStock, currentProduct)
		}
	}

	return newlyInStock, newlyOutOfStock
}
