// Package filestore stores records as one JSON document per file.
//
// Layout under the data directory:
//
//	posts/{id}.json
//	replies/reply_{id}.json
//	likes/like_{id}.json
//	message_refs/message_ref_{post_id}.json
//	actions/action_{type}_{author}_{target}_{YYYYMMDD_HHMMSS}.json
//
// Each kind has its own lock. Id allocation and the record write happen under
// that lock, and every write is a temp file plus rename, so concurrent callers
// never share an id and readers never see a partial document.
//
// Ids come from a storage.Sequencer. OpenBackend seeds the sequencer with the
// largest id found on disk, and allocation skips any id whose file exists.
//
// Private post content is encrypted with a vault.Cipher before it is written.
// Corrupt documents read as storage.ErrNotFound and are skipped by listings;
// a private post that fails to decrypt returns storage.ErrDecryptionFailed.
package filestore
