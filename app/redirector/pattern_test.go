package redirector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	e "nuclight.org/redirect-tg-bot/pkg/entities"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		want      e.SourceSpec
	}{
		{
			name:      "username",
			reference: "@chan1",
			want:      e.SourceSpec{Username: "@chan1"},
		},
		{
			name:      "username keeps the full reference",
			reference: "@t.me/joinchat/odd",
			want:      e.SourceSpec{Username: "@t.me/joinchat/odd"},
		},
		{
			name:      "bare invite link",
			reference: "t.me/joinchat/AbCdEf123",
			want:      e.SourceSpec{Hash: "AbCdEf123"},
		},
		{
			name:      "https invite link",
			reference: "https://t.me/joinchat/AbCdEf123",
			want:      e.SourceSpec{Hash: "AbCdEf123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Classify(tt.reference)
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func TestClassify_Rejects(t *testing.T) {
	references := []string{
		"",
		"chan1",
		"joinchat/abc",
		"http://t.me/joinchat/abc",
		"t.me/chan1",
		"T.me/joinchat/abc",
	}

	for _, reference := range references {
		t.Run(reference, func(t *testing.T) {
			_, err := Classify(reference)

			var formatErr *InvalidFormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, reference, formatErr.Reference)
		})
	}
}
