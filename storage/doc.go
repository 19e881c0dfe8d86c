// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for the thoughts store.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic, the sentinel errors every backend reports, and the record
// codec shared by backends.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - PostRepository: posts, with at-rest encryption of private content
//   - ReplyRepository: replies attached to posts
//   - LikeRepository: likes attached to posts
//   - MessageRefRepository: one rendered-message link per post
//   - ActionRepository: append-only user action log
//   - Sequencer: per-kind id allocation
//   - AccessRecorder: sink for private-content access events
//
// Two implementations ship with the module: storage/filestore keeps every
// record as one JSON document on disk, and storage/badger keeps the id
// counters that filestore allocates from.
//
// # Record Codec
//
// Records are encoded with MarshalRecord as indented JSON. UnmarshalRecord
// keeps keys it does not recognize so documents written by other tools
// survive a rewrite. A document that fails to decode returns an error
// wrapping ErrCorruptRecord; repositories report such records as ErrNotFound
// and log a warning.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Operations are short and
// local; a context that is already done fails the call before it touches disk.
package storage
