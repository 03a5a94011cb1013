// Package postgres provides PostgreSQL implementations of the store
// interfaces, using database/sql over the pgx stdlib driver. Every store
// works against store.DBTX, so the same implementation serves both direct
// connections and transactions.
package postgres
