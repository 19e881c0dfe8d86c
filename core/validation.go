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

import (
	"fmt"
	"strings"
)

// ValidatePostDraft validates a PostDraft according to domain rules.
//
// Validation rules:
//   - AuthorID must not be empty
//   - Content must not be blank
//
// NOT validated:
//   - Category, ImageURL, DisplayName (free text, optional)
//   - MessageID, ChannelID (set once the post is rendered)
func ValidatePostDraft(draft *PostDraft) error {
	if draft == nil {
		return fmt.Errorf("%w: draft is nil", ErrInvalidPost)
	}

	if draft.AuthorID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyAuthor)
	}

	if strings.TrimSpace(draft.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyContent)
	}

	return nil
}

// ValidatePostUpdate rejects an update that would blank the content.
func ValidatePostUpdate(update *PostUpdate) error {
	if update == nil {
		return nil
	}
	if update.Content != nil && strings.TrimSpace(*update.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyContent)
	}
	return nil
}

// ValidateReply validates a Reply according to domain rules.
//
// Validation rules:
//   - PostID must be set
//   - AuthorID must not be empty
//   - Content must not be blank
func ValidateReply(reply *Reply) error {
	if reply == nil {
		return fmt.Errorf("%w: reply is nil", ErrInvalidReply)
	}

	if reply.PostID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidReply, ErrMissingPostID)
	}

	if reply.AuthorID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidReply, ErrEmptyAuthor)
	}

	if strings.TrimSpace(reply.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidReply, ErrEmptyContent)
	}

	return nil
}

// ValidateLike validates a Like according to domain rules.
func ValidateLike(like *Like) error {
	if like == nil {
		return fmt.Errorf("%w: like is nil", ErrInvalidLike)
	}

	if like.PostID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidLike, ErrMissingPostID)
	}

	if like.AuthorID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLike, ErrEmptyAuthor)
	}

	return nil
}

// ValidateMessageRef validates a MessageRef according to domain rules.
func ValidateMessageRef(ref *MessageRef) error {
	if ref == nil {
		return fmt.Errorf("%w: ref is nil", ErrInvalidMessageRef)
	}

	if ref.PostID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMessageRef, ErrMissingPostID)
	}

	if ref.MessageID == "" || ref.ChannelID == "" {
		return fmt.Errorf("%w: message and channel ids are required", ErrInvalidMessageRef)
	}

	return nil
}

// ValidateAction validates an ActionRecord according to domain rules.
func ValidateAction(action *ActionRecord) error {
	if action == nil {
		return fmt.Errorf("%w: action is nil", ErrInvalidAction)
	}

	if action.ActionType == "" {
		return fmt.Errorf("%w: action type is required", ErrInvalidAction)
	}

	if action.AuthorID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAction, ErrEmptyAuthor)
	}

	return nil
}
