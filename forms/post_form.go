package forms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/storage"
	"github.com/mobpsycho100/yatube/utils"
)

// PostInput is a validated authoring payload, ready for the post store.
// Author and publication date are assigned elsewhere.
type PostInput struct {
	Text    string
	GroupID *uint
}

// NewPost builds a Post record owned by the given author. The publication
// date stays zero so the store assigns it at creation time.
func (in *PostInput) NewPost(userID uint) models.Post {
	return models.Post{Text: in.Text, GroupID: in.GroupID, UserID: userID}
}

// ValidationError carries field-level messages for re-rendering the form.
// It never reaches the store: validation failures have no persistence side
// effect.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ValidatePost checks untrusted authoring input against the form rules:
// text must contain something besides whitespace, and the group, when chosen,
// must exist. A nonexistent group is a field error here, not a store-level
// not-found.
func ValidatePost(ctx context.Context, store storage.Store, text string, groupID *uint) (*PostInput, error) {
	fields := map[string]string{}

	text = utils.Sanitize(strings.TrimSpace(text))
	if text == "" {
		fields["text"] = "text cannot be empty"
	}

	if groupID != nil {
		if _, err := store.GetGroupByID(ctx, *groupID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				fields["group"] = "group does not exist"
			} else {
				return nil, err
			}
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return &PostInput{Text: text, GroupID: groupID}, nil
}
