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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidPost indicates a Post or PostDraft failed validation.
	ErrInvalidPost = errors.New("invalid post")

	// ErrInvalidReply indicates a Reply failed validation.
	ErrInvalidReply = errors.New("invalid reply")

	// ErrInvalidLike indicates a Like failed validation.
	ErrInvalidLike = errors.New("invalid like")

	// ErrInvalidMessageRef indicates a MessageRef failed validation.
	ErrInvalidMessageRef = errors.New("invalid message ref")

	// ErrInvalidAction indicates an ActionRecord failed validation.
	ErrInvalidAction = errors.New("invalid action record")

	// ErrInvalidTimestamp indicates a timestamp could not be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyAuthor indicates the AuthorID field is empty.
	ErrEmptyAuthor = errors.New("author id cannot be empty")

	// ErrMissingPostID indicates a record does not reference a post.
	ErrMissingPostID = errors.New("post id is required")
)
