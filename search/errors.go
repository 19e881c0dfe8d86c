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


package search

import "errors"

var (
	// ErrPostRepositoryRequired is returned when a post repository is not provided.
	ErrPostRepositoryRequired = errors.New("post repository required")

	// ErrReplyRepositoryRequired is returned when a reply repository is not provided.
	ErrReplyRepositoryRequired = errors.New("reply repository required")

	// ErrLikeRepositoryRequired is returned when a like repository is not provided.
	ErrLikeRepositoryRequired = errors.New("like repository required")

	// ErrUnknownKind is returned for a query over a kind that cannot be searched.
	ErrUnknownKind = errors.New("unknown search kind")

	// ErrInvalidQuery is returned when query filters contradict each other
	// or do not apply to the requested kind.
	ErrInvalidQuery = errors.New("invalid search query")
)
