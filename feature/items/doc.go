// Package items manages physical assets: creation with label allocation,
// filtered listing, partial updates, disposal and the label inventory.
//
// The Repository is dialect-neutral; every SQL difference goes through
// database.Dialect and the query builder.
package items
