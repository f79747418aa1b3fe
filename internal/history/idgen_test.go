package history

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

	tests := map[string]struct {
		validate func(t *testing.T, id string)
	}{
		"matches adjective_noun_YYYYMMDD_HHMMSS": {
			validate: func(t *testing.T, id string) {
				assert.Regexp(t, regexp.MustCompile(`^[a-z]+_[a-z]+_\d{8}_\d{6}$`), id)
			},
		},
		"uses the given time": {
			validate: func(t *testing.T, id string) {
				assert.Regexp(t, `_20260301_090507$`, id)
			},
		},
		"words come from the lists": {
			validate: func(t *testing.T, id string) {
				m := regexp.MustCompile(`^([a-z]+)_([a-z]+)_`).FindStringSubmatch(id)
				require.Len(t, m, 3)
				assert.Contains(t, adjectives, m[1])
				assert.Contains(t, nouns, m[2])
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			id, err := GenerateID(now)
			require.NoError(t, err)
			tc.validate(t, id)
		})
	}
}

func TestRandomWord_Empty(t *testing.T) {
	t.Parallel()

	_, err := randomWord(nil)
	assert.Error(t, err)
}
