package database

// Requêtes CQL de la table documents (voir scripts/scylladb_init.cql)
const (
	cqlCreateDocuments = `CREATE TABLE IF NOT EXISTS documents (
		collection text,
		id text,
		data text,
		created_at timestamp,
		updated_at timestamp,
		PRIMARY KEY ((collection), id)
	)`

	cqlGetDocument     = `SELECT data FROM documents WHERE collection = ? AND id = ?`
	cqlListCollection  = `SELECT id, data FROM documents WHERE collection = ?`
	cqlInsertIfMissing = `INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?) IF NOT EXISTS`
	cqlUpsertDocument  = `INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	cqlUpdateData      = `UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`
	cqlCompareAndSet   = `UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ? IF data = ?`
	cqlDeleteDocument  = `DELETE FROM documents WHERE collection = ? AND id = ?`
)
