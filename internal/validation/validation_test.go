package validation

import (
	"errors"
	"strings"
	"testing"

	"engagement/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Owner   uuid.UUID `validate:"required" field:"user_id"`
	Content string    `validate:"notblank,max=5" field:"content"`
	Rating  *int      `validate:"omitnil,min=1,max=5" field:"rating"`
	Kind    string    `validate:"oneof=A B" field:"kind"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	three, nine := 3, 9

	tests := []struct {
		name    string
		in      sample
		wantMsg string
	}{
		{"valid", sample{Owner: uuid.New(), Content: "hey", Rating: &three, Kind: "A"}, ""},
		{"nil rating skipped", sample{Owner: uuid.New(), Content: "hey", Kind: "B"}, ""},
		{"nil uuid", sample{Content: "hey", Kind: "A"}, "user_id is required"},
		{"blank content", sample{Owner: uuid.New(), Content: "   ", Kind: "A"}, "content is required"},
		{"long content", sample{Owner: uuid.New(), Content: "toolong", Kind: "A"}, "content must be at most 5 characters"},
		{"rating out of range", sample{Owner: uuid.New(), Content: "hey", Rating: &nine, Kind: "A"}, "rating must be at most 5"},
		{"bad enum", sample{Owner: uuid.New(), Content: "hey", Kind: "C"}, "kind must be one of [A B]"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestStruct_CountsRunesNotBytes(t *testing.T) {
	t.Parallel()
	err := Struct(sample{Owner: uuid.New(), Content: strings.Repeat("é", 5), Kind: "A"})
	assert.NoError(t, err)
}
