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


// Package search filters posts, replies and likes in memory.
//
// A search enumerates every record of one kind through its repository, so
// private posts the requester cannot see never reach the filters. Filters
// then run in a fixed order:
//   - keyword, a case-insensitive substring match
//   - category equality (posts only)
//   - author equality
//   - anonymity flag and creation time range
//
// Matches are sorted newest first and truncated to the query limit.
package search
