package db

// Schema creation is handled here so every service sees the same layout.
// Rooms, statuses and blob metadata use a single constant partition so the
// directory listings stay clustering-ordered; message and chunk tables
// partition by their owner.

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id text PRIMARY KEY,
		name text,
		avatar_url text,
		email text,
		password_hash text
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (
		email text PRIMARY KEY,
		id text
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		bucket text,
		name text,
		id text,
		creator_id text,
		PRIMARY KEY (bucket, name, id)
	) WITH CLUSTERING ORDER BY (name ASC, id ASC)`,
	`CREATE TABLE IF NOT EXISTS rooms_by_id (
		id text PRIMARY KEY,
		name text,
		creator_id text
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		room_id text,
		id bigint,
		sender_id text,
		user_name text,
		user_avatar text,
		content text,
		file_url text,
		file_name text,
		file_type text,
		timestamp timestamp,
		PRIMARY KEY (room_id, id)
	) WITH CLUSTERING ORDER BY (id ASC)`,
	`CREATE TABLE IF NOT EXISTS status_posts (
		bucket text,
		id bigint,
		user_id text,
		user_name text,
		user_avatar text,
		text_content text,
		image_url text,
		created_at timestamp,
		expires_at timestamp,
		PRIMARY KEY (bucket, id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
	`CREATE TABLE IF NOT EXISTS blob_chunks (
		path text,
		seq int,
		data blob,
		PRIMARY KEY (path, seq)
	) WITH CLUSTERING ORDER BY (seq ASC)`,
	`CREATE TABLE IF NOT EXISTS blob_meta (
		path text PRIMARY KEY,
		name text,
		content_type text,
		size bigint,
		chunks int
	)`,
}

// EnsureSchema creates the keyspace tables if they are missing. Called by
// syncd at startup; the other services assume the layout exists.
func (s *Session) EnsureSchema() error {
	for _, stmt := range schemaStatements {
		if err := s.Query(stmt).Exec(); err != nil {
			return err
		}
	}
	return nil
}
