// Package models maps the ledger engine's aggregates onto database rows.
//
// Domain types carry no GORM tags. Each model here has a FromDomain and a
// ToDomain mapper, and repositories only ever read or write models. Ledger
// rows live in finance.go, stock rows in inventory.go and order rows (with
// their line items) in trade.go.
package models
