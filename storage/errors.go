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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found,
	// or that it exists but is not visible to the requester.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized indicates the requester may see the record but not change it.
	ErrUnauthorized = errors.New("not authorized")

	// ErrAlreadyLiked indicates the author already has a like on the post.
	ErrAlreadyLiked = errors.New("post already liked by this author")

	// ErrCorruptRecord indicates a stored document could not be decoded.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrDecryptionFailed indicates private content did not decrypt with the current key.
	ErrDecryptionFailed = errors.New("private content decryption failed")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)
